package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calehh/hac-dao/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Key is an account key used to sign DAO transactions.
type Key struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewKey(priv *ecdsa.PrivateKey) *Key {
	return &Key{
		privateKey: priv,
		address:    crypto.PubkeyToAddress(priv.PublicKey),
	}
}

func GenerateKey() (*Key, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewKey(priv), nil
}

// LoadKeyFile reads a hex encoded secp256k1 private key.
func LoadKeyFile(keyFilePath string) (*Key, error) {
	dat, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(string(dat)), "0x"))
	if err != nil {
		return nil, fmt.Errorf("error reading key from %v: %w", keyFilePath, err)
	}
	return NewKey(priv), nil
}

func (k *Key) Save(keyFilePath string) error {
	if err := os.MkdirAll(filepath.Dir(keyFilePath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(keyFilePath, []byte(hex.EncodeToString(crypto.FromECDSA(k.privateKey))), 0o600)
}

func (k *Key) Address() common.Address {
	return k.address
}

func (k *Key) PublicKey() []byte {
	return crypto.FromECDSAPub(&k.privateKey.PublicKey)
}

func (k *Key) SignTx(chainID string, btx *tx.DAOTx) error {
	return btx.Sign(chainID, k.privateKey)
}
