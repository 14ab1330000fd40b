package tx

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

type DAOTx struct {
	Version uint8          `json:"version"`
	Type    DAOTxType      `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      any            `json:"tx"`
	Sig     hexutil.Bytes  `json:"sig"`
}

type AddProposalTx struct {
	Recipient   common.Address `json:"recipient"`
	Description string         `json:"description"`
	Payload     hexutil.Bytes  `json:"payload"`
}

// DepositTx amounts are base-10 strings in the token's smallest unit.
type DepositTx struct {
	Amount string `json:"amount"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
	Support  bool   `json:"support"`
}

type FinishProposalTx struct {
	Proposal uint64 `json:"proposal"`
}

type WithdrawTx struct{}

type TransferTx struct {
	To     common.Address `json:"to"`
	Amount string         `json:"amount"`
}

// ParseAmount decodes a positive base-10 token amount.
func ParseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if v.IsZero() {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

type daoTxTmpl[Tx any] struct {
	Version uint8          `json:"version"`
	Type    DAOTxType      `json:"type"`
	Nonce   uint64         `json:"nonce"`
	Sender  common.Address `json:"sender"`
	Tx      Tx             `json:"tx"`
	Sig     hexutil.Bytes  `json:"sig"`
}

// SigData is the preimage that gets signed: the tx with the chain id in
// place of the signature.
func (tx *DAOTx) SigData(chainID string) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = []byte(chainID)
	dat, err = json.Marshal(ntx)
	return
}

func (tx *DAOTx) SigHash(chainID string) (h common.Hash, err error) {
	dat, err := tx.SigData(chainID)
	if err != nil {
		return
	}
	h = crypto.Keccak256Hash(dat)
	return
}

func (tx *DAOTx) Sign(chainID string, key *ecdsa.PrivateKey) (err error) {
	tx.Sender = crypto.PubkeyToAddress(key.PublicKey)
	h, err := tx.SigHash(chainID)
	if err != nil {
		return
	}
	tx.Sig, err = crypto.Sign(h[:], key)
	return
}

// Signer recovers the address that signed the tx.
func (tx *DAOTx) Signer(chainID string) (addr common.Address, err error) {
	if len(tx.Sig) != crypto.SignatureLength {
		return addr, ErrMissingSignature
	}
	h, err := tx.SigHash(chainID)
	if err != nil {
		return
	}
	pub, err := crypto.SigToPub(h[:], tx.Sig)
	if err != nil {
		return
	}
	addr = crypto.PubkeyToAddress(*pub)
	return
}

func parseDAOTxType(dat []byte) DAOTxType {
	var tx struct {
		Type DAOTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return DAOTxTypeUnknown
	}
	return tx.Type
}

func unmarshalDAOTx[Tx any](dat []byte) (btx *DAOTx, err error) {
	var txt daoTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != DAOTxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	btx = new(DAOTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalDAOTx(dat []byte) (btx *DAOTx, err error) {
	tp := parseDAOTxType(dat)
	switch tp {
	case DAOTxTypeAddProposal:
		return unmarshalDAOTx[AddProposalTx](dat)
	case DAOTxTypeDeposit:
		return unmarshalDAOTx[DepositTx](dat)
	case DAOTxTypeVote:
		return unmarshalDAOTx[VoteTx](dat)
	case DAOTxTypeFinishProposal:
		return unmarshalDAOTx[FinishProposalTx](dat)
	case DAOTxTypeWithdraw:
		return unmarshalDAOTx[WithdrawTx](dat)
	case DAOTxTypeTransfer:
		return unmarshalDAOTx[TransferTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalDAOTx(btx *DAOTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
