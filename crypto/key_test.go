package crypto

import (
	"path/filepath"
	"testing"

	"github.com/calehh/hac-dao/tx"
	"github.com/stretchr/testify/require"
)

func TestKeyFileRoundTrip(t *testing.T) {
	k, err := GenerateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config", "key")
	require.NoError(t, k.Save(path))

	loaded, err := LoadKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, k.Address(), loaded.Address())
	require.Len(t, loaded.PublicKey(), 65)

	btx := &tx.DAOTx{Type: tx.DAOTxTypeWithdraw, Tx: &tx.WithdrawTx{}}
	require.NoError(t, loaded.SignTx("dao-test", btx))
	signer, err := btx.Signer("dao-test")
	require.NoError(t, err)
	require.Equal(t, k.Address(), signer)
}

func TestLoadKeyFileMissing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
