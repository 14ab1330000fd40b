package handler

import (
	"context"
	"testing"
	"time"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	chair  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	alice  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	target = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	start  = time.Unix(1_700_000_000, 0)
)

func newState(t *testing.T) *state.State {
	t.Helper()
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	st.SetChainId("dao-test")
	require.NoError(t, st.SetParams(dao.Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}))
	require.NoError(t, st.Mint(alice, uint256.NewInt(1000)))
	st.SetBlock(1, start)
	return st
}

func TestProcessGovernanceFlow(t *testing.T) {
	st := newState(t)
	hs := Handlers(cmtlog.NewNopLogger())
	ctx := context.Background()

	res, err := hs[tx.DAOTxTypeAddProposal].Process(ctx, st, &tx.DAOTx{
		Type: tx.DAOTxTypeAddProposal, Sender: chair,
		Tx: &tx.AddProposalTx{Recipient: target, Description: "fund", Payload: []byte{1}},
	})
	require.NoError(t, err)
	require.Equal(t, types.EventProposalCreatedType, res.Events[0].Type)

	_, err = hs[tx.DAOTxTypeDeposit].Process(ctx, st, &tx.DAOTx{
		Type: tx.DAOTxTypeDeposit, Sender: alice, Tx: &tx.DepositTx{Amount: "400"},
	})
	require.NoError(t, err)

	_, err = hs[tx.DAOTxTypeVote].Process(ctx, st, &tx.DAOTx{
		Type: tx.DAOTxTypeVote, Sender: alice, Tx: &tx.VoteTx{Proposal: 0, Support: true},
	})
	require.NoError(t, err)

	finish := &tx.DAOTx{Type: tx.DAOTxTypeFinishProposal, Sender: alice, Tx: &tx.FinishProposalTx{Proposal: 0}}
	_, err = hs[tx.DAOTxTypeFinishProposal].Check(ctx, st, finish)
	require.ErrorIs(t, err, dao.ErrDebateNotOver)

	st.SetBlock(2, start.Add(180*time.Second))
	res, err = hs[tx.DAOTxTypeFinishProposal].Process(ctx, st, finish)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	require.Equal(t, types.EventProposalFinishedType, res.Events[0].Type)
	action := types.DecodeEventAction(res.Events[1])
	require.NotNil(t, action)
	require.Equal(t, target, action.Recipient)
	require.Equal(t, []byte{1}, action.Payload)

	res, err = hs[tx.DAOTxTypeWithdraw].Process(ctx, st, &tx.DAOTx{
		Type: tx.DAOTxTypeWithdraw, Sender: alice, Tx: &tx.WithdrawTx{},
	})
	require.NoError(t, err)
	w := types.DecodeEventWithdraw(res.Events[0])
	require.Equal(t, uint256.NewInt(400), w.Amount)

	bal, err := st.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1000), bal)
}

func TestCheckLeavesStateUntouched(t *testing.T) {
	st := newState(t)
	hs := Handlers(cmtlog.NewNopLogger())
	_, err := hs[tx.DAOTxTypeAddProposal].Check(context.Background(), st, &tx.DAOTx{
		Type: tx.DAOTxTypeAddProposal, Sender: chair,
		Tx: &tx.AddProposalTx{Recipient: target, Payload: []byte{1}},
	})
	require.NoError(t, err)
	require.Zero(t, st.ProposalCount())

	_, err = hs[tx.DAOTxTypeAddProposal].Check(context.Background(), st, &tx.DAOTx{
		Type: tx.DAOTxTypeAddProposal, Sender: alice,
		Tx: &tx.AddProposalTx{Recipient: target, Payload: []byte{1}},
	})
	require.ErrorIs(t, err, dao.ErrAccessDenied)
}

func TestTransferRejectsEscrow(t *testing.T) {
	st := newState(t)
	h := NewTransferTxHandler(cmtlog.NewNopLogger())
	_, err := h.Process(context.Background(), st, &tx.DAOTx{
		Type: tx.DAOTxTypeTransfer, Sender: alice, Tx: &tx.TransferTx{To: dao.EscrowAddress, Amount: "1"},
	})
	require.ErrorIs(t, err, state.ErrEscrowTransfer)

	_, err = h.Process(context.Background(), st, &tx.DAOTx{
		Type: tx.DAOTxTypeTransfer, Sender: alice, Tx: &tx.TransferTx{To: chair, Amount: "1001"},
	})
	require.ErrorIs(t, err, state.ErrInsufficientBalance)

	_, err = h.Process(context.Background(), st, &tx.DAOTx{
		Type: tx.DAOTxTypeTransfer, Sender: alice, Tx: &tx.TransferTx{To: chair, Amount: "250"},
	})
	require.NoError(t, err)
	bal, err := st.BalanceOf(chair)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(250), bal)
}

func TestPayloadTypeMismatch(t *testing.T) {
	st := newState(t)
	_, err := NewVoteTxHandler(cmtlog.NewNopLogger()).Process(context.Background(), st, &tx.DAOTx{
		Type: tx.DAOTxTypeVote, Sender: alice, Tx: &tx.DepositTx{Amount: "1"},
	})
	require.ErrorIs(t, err, tx.ErrInvalidTx)
}
