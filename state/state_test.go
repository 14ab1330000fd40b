package state

import (
	"context"
	"testing"
	"time"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/tx"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	chair  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	alice  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	target = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	start  = time.Unix(1_700_000_000, 0)
)

func commit(t *testing.T, db *StateDB, st *State) common.Hash {
	t.Helper()
	h, err := st.Update()
	require.NoError(t, err)
	committed, err := db.SetState(st)
	require.NoError(t, err)
	require.Equal(t, h, committed)
	return committed
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	logger := cmtlog.NewNopLogger()
	db, err := NewStateDB(dir, logger)
	require.NoError(t, err)

	st := db.NewState()
	st.SetChainId("dao-test")
	require.NoError(t, st.SetParams(dao.Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}))
	require.NoError(t, st.Mint(alice, uint256.NewInt(500)))
	commit(t, db, st)

	st = db.NewState()
	require.Equal(t, uint64(1), st.Header().Height)
	st.SetBlock(1, start)
	e, err := st.Engine(logger)
	require.NoError(t, err)
	_, err = e.AddProposal(chair, target, "upgrade", []byte{0xaa}, start)
	require.NoError(t, err)
	_, err = e.Deposit(alice, uint256.NewInt(200))
	require.NoError(t, err)
	_, err = e.Vote(alice, 0, true, start)
	require.NoError(t, err)
	hash := commit(t, db, st)

	st = db.NewState()
	st.SetBlock(2, start.Add(time.Hour))
	e, err = st.Engine(logger)
	require.NoError(t, err)
	ev, err := e.FinishProposal(context.Background(), 0, st.BlockTime())
	require.NoError(t, err)
	require.Equal(t, dao.ProposalStatusFinished, ev.Status)
	hash = commit(t, db, st)
	require.NoError(t, db.Close())

	db, err = NewStateDB(dir, logger)
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, hash.Bytes(), db.Header().Hash)
	require.Equal(t, "dao-test", db.Header().ChainId)

	p, _, err := db.GetProposal(0)
	require.NoError(t, err)
	require.Equal(t, dao.ProposalStatusFinished, p.Status)
	require.Equal(t, uint64(1), p.VotesFor)
	require.Equal(t, []byte{0xaa}, p.Payload)

	v, _, err := db.GetVoter(alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(200), v.Deposited)
	require.Equal(t, []uint64{0}, v.Locks)

	support, ok, _, err := db.GetVote(alice, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, support)

	params, _, err := db.Params()
	require.NoError(t, err)
	require.Equal(t, uint64(180), params.DebatePeriod)

	a, _, err := db.GetAction(0)
	require.NoError(t, err)
	require.Equal(t, target, a.Recipient)
	require.Equal(t, uint64(2), a.Height)

	acnt, _, err := db.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(300), acnt.Balance)
	escrow, _, err := db.GetAccount(dao.EscrowAddress)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(200), escrow.Balance)
}

func TestQueriesReadCommittedState(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	require.NoError(t, st.SetParams(dao.Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}))
	require.NoError(t, st.Mint(alice, uint256.NewInt(500)))
	commit(t, db, st)

	st = db.NewState()
	require.NoError(t, st.Transfer(alice, chair, uint256.NewInt(100)))
	require.NoError(t, st.SetProposal(&dao.Proposal{ID: 0, Recipient: target, Status: dao.ProposalStatusAdded}))
	_, err = st.Update()
	require.NoError(t, err)

	acnt, height, err := db.GetAccount(chair)
	require.NoError(t, err)
	require.Zero(t, height)
	require.True(t, acnt.Balance.IsZero())
	acnt, _, err = db.GetAccount(alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(500), acnt.Balance)
	_, _, err = db.GetProposal(0)
	require.ErrorIs(t, err, dao.ErrNotFound)
	checked, err := db.CheckState().BalanceOf(chair)
	require.NoError(t, err)
	require.True(t, checked.IsZero())

	_, err = db.SetState(st)
	require.NoError(t, err)
	acnt, height, err = db.GetAccount(chair)
	require.NoError(t, err)
	require.Equal(t, uint64(1), height)
	require.Equal(t, uint256.NewInt(100), acnt.Balance)
	p, _, err := db.GetProposal(0)
	require.NoError(t, err)
	require.Equal(t, target, p.Recipient)
}

func TestCloneIsolation(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	require.NoError(t, st.SetParams(dao.Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}))
	require.NoError(t, st.Mint(alice, uint256.NewInt(10)))

	scratch := st.Clone()
	require.NoError(t, scratch.Transfer(alice, chair, uint256.NewInt(4)))
	require.NoError(t, scratch.SetProposal(&dao.Proposal{ID: 0, Recipient: target, Status: dao.ProposalStatusAdded}))

	bal, err := st.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(10), bal)
	require.Zero(t, st.ProposalCount())
	require.Equal(t, uint64(1), scratch.ProposalCount())
}

func TestUpdateIsDeterministic(t *testing.T) {
	build := func() common.Hash {
		db, err := NewMemStateDB(cmtlog.NewNopLogger())
		require.NoError(t, err)
		st := db.NewState()
		st.SetChainId("dao-test")
		require.NoError(t, st.SetParams(dao.Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}))
		for i := 1; i <= 20; i++ {
			require.NoError(t, st.Mint(common.BytesToAddress([]byte{byte(i)}), uint256.NewInt(uint64(i))))
		}
		h, err := st.Update()
		require.NoError(t, err)
		return h
	}
	require.Equal(t, build(), build())
}

func TestSetProposalSequence(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	require.ErrorIs(t, st.SetProposal(&dao.Proposal{ID: 1}), ErrProposalGap)
	_, err = st.GetProposal(0)
	require.ErrorIs(t, err, dao.ErrNotFound)
	require.ErrorIs(t, st.SetParams(dao.Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 10}), dao.ErrInvalidDebatePeriod)
	_, err = st.Engine(nil)
	require.ErrorIs(t, err, ErrParamsNotInitialized)
}

func TestVerify(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	st.SetChainId("dao-test")

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	btx := &tx.DAOTx{Type: tx.DAOTxTypeWithdraw, Nonce: 0, Tx: &tx.WithdrawTx{}}
	require.NoError(t, btx.Sign("dao-test", key))
	require.NoError(t, st.Verify(btx, false))

	require.NoError(t, st.IncNonce(btx.Sender))
	require.ErrorIs(t, st.Verify(btx, false), ErrTxNonceInvalid)

	btx.Nonce = 3
	require.NoError(t, btx.Sign("dao-test", key))
	require.ErrorIs(t, st.Verify(btx, false), ErrTxNonceInvalid)
	require.NoError(t, st.Verify(btx, true))

	btx.Sender = alice
	require.ErrorIs(t, st.Verify(btx, true), ErrTxSigInvalid)
}
