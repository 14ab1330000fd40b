package dao

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	chair    = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob      = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	carol    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	target   = common.HexToAddress("0x00000000000000000000000000000000000000f1")

	genesis = time.Unix(1_700_000_000, 0)
)

func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

type harness struct {
	engine *Engine
	store  *MemStore
	ledger *MemLedger
	calls  []common.Address
}

func newHarness(t *testing.T, quorum, period uint64) *harness {
	t.Helper()
	h := &harness{store: NewMemStore(), ledger: NewMemLedger()}
	for _, a := range []common.Address{alice, bob, carol, stranger} {
		h.ledger.Mint(a, units(1000))
	}
	exec := ExecutorFunc(func(_ context.Context, recipient common.Address, _ []byte) error {
		h.calls = append(h.calls, recipient)
		return nil
	})
	var err error
	h.engine, err = NewEngine(Params{Chairperson: chair, MinQuorum: quorum, DebatePeriod: period}, h.store, h.ledger, exec, nil)
	require.NoError(t, err)
	return h
}

func (h *harness) escrowInvariant(t *testing.T) {
	t.Helper()
	sum := new(uint256.Int)
	for _, v := range h.store.Voters() {
		sum.Add(sum, v.Deposited)
	}
	escrow, err := h.ledger.BalanceOf(EscrowAddress)
	require.NoError(t, err)
	require.Equal(t, escrow.String(), sum.String())
}

func (h *harness) propose(t *testing.T, at time.Time) uint64 {
	t.Helper()
	ev, err := h.engine.AddProposal(chair, target, "raise budget", []byte{0xa9, 0x05, 0x9c, 0xbb}, at)
	require.NoError(t, err)
	return ev.ProposalID
}

func TestNewEngineParams(t *testing.T) {
	_, err := NewEngine(Params{Chairperson: chair, MinQuorum: 3, DebatePeriod: 100}, NewMemStore(), NewMemLedger(), nil, nil)
	require.ErrorIs(t, err, ErrInvalidDebatePeriod)

	_, err = NewEngine(Params{Chairperson: chair, MinQuorum: 0, DebatePeriod: 300}, NewMemStore(), NewMemLedger(), nil, nil)
	require.ErrorIs(t, err, ErrInvalidMinQuorum)

	_, err = NewEngine(Params{MinQuorum: 3, DebatePeriod: 300}, NewMemStore(), NewMemLedger(), nil, nil)
	require.ErrorIs(t, err, ErrInvalidChairperson)

	e, err := NewEngine(Params{Chairperson: chair, MinQuorum: 3, DebatePeriod: MinDebatePeriod}, NewMemStore(), NewMemLedger(), nil, nil)
	require.NoError(t, err)
	require.True(t, e.HasRole(RoleChairperson, chair))
	require.False(t, e.HasRole(RoleChairperson, alice))
}

func TestAddProposal(t *testing.T) {
	h := newHarness(t, 3, 300)

	_, err := h.engine.AddProposal(alice, target, "x", []byte{1}, genesis)
	require.ErrorIs(t, err, ErrAccessDenied)
	_, err = h.engine.AddProposal(chair, common.Address{}, "x", []byte{1}, genesis)
	require.ErrorIs(t, err, ErrInvalidRecipient)
	_, err = h.engine.AddProposal(chair, EscrowAddress, "x", []byte{1}, genesis)
	require.ErrorIs(t, err, ErrInvalidRecipient)
	_, err = h.engine.AddProposal(chair, target, "x", nil, genesis)
	require.ErrorIs(t, err, ErrInvalidPayload)
	_, err = h.engine.AddProposal(chair, target, "x", make([]byte, MaxPayloadSize+1), genesis)
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.Zero(t, h.store.ProposalCount())

	for i := uint64(0); i < 3; i++ {
		ev, err := h.engine.AddProposal(chair, target, "", []byte{byte(i)}, genesis.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.Equal(t, i, ev.ProposalID)
	}
	p, err := h.engine.Proposal(2)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusAdded, p.Status)
	require.Equal(t, genesis.Unix()+2, p.StartTime)
	require.Zero(t, p.VotesFor)
	require.Zero(t, p.VotesAgainst)

	_, err = h.engine.Proposal(3)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDepositPreconditions(t *testing.T) {
	h := newHarness(t, 3, 300)

	_, err := h.engine.Deposit(alice, new(uint256.Int))
	require.ErrorIs(t, err, ErrEmptyDeposit)
	_, err = h.engine.Deposit(alice, units(1))
	require.ErrorIs(t, err, ErrNoProposalYet)

	h.propose(t, genesis)
	ev, err := h.engine.Deposit(alice, units(100))
	require.NoError(t, err)
	require.Equal(t, units(100), ev.Balance)
	ev, err = h.engine.Deposit(alice, units(50))
	require.NoError(t, err)
	require.Equal(t, units(150), ev.Balance)

	bal, err := h.ledger.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, units(850), bal)
	h.escrowInvariant(t)
}

func TestDepositTransferFailure(t *testing.T) {
	h := newHarness(t, 3, 300)
	h.propose(t, genesis)

	_, err := h.engine.Deposit(alice, units(5000))
	require.ErrorIs(t, err, ErrTransferFailed)
	v, err := h.engine.Voter(alice)
	require.NoError(t, err)
	require.True(t, v.Deposited.IsZero())
	h.escrowInvariant(t)
}

// Three voters, quorum three, two in favour.
func TestScenarioApproved(t *testing.T) {
	h := newHarness(t, 3, 300)
	id := h.propose(t, genesis)

	for _, a := range []common.Address{alice, bob, carol} {
		_, err := h.engine.Deposit(a, units(100))
		require.NoError(t, err)
	}
	votes := map[common.Address]bool{alice: true, bob: false, carol: true}
	for _, a := range []common.Address{alice, bob, carol} {
		ev, err := h.engine.Vote(a, id, votes[a], genesis.Add(10*time.Second))
		require.NoError(t, err)
		require.Equal(t, a, ev.Voter)
	}

	ev, err := h.engine.FinishProposal(context.Background(), id, genesis.Add(300*time.Second))
	require.NoError(t, err)
	require.Equal(t, ProposalStatusFinished, ev.Status)
	require.True(t, ev.Approved())
	require.Empty(t, ev.ExecError)
	require.Equal(t, []common.Address{target}, h.calls)

	w, err := h.engine.Withdraw(alice, genesis.Add(301*time.Second))
	require.NoError(t, err)
	require.Equal(t, units(100), w.Amount)
	bal, err := h.ledger.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, units(1000), bal)
	h.escrowInvariant(t)
}

func TestScenarioRejected(t *testing.T) {
	h := newHarness(t, 3, 300)
	id := h.propose(t, genesis)

	votes := map[common.Address]bool{alice: true, bob: false, carol: false}
	for a, support := range votes {
		_, err := h.engine.Deposit(a, units(100))
		require.NoError(t, err)
		_, err = h.engine.Vote(a, id, support, genesis.Add(time.Minute))
		require.NoError(t, err)
	}

	ev, err := h.engine.FinishProposal(context.Background(), id, genesis.Add(10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, ProposalStatusRejected, ev.Status)
	require.Equal(t, uint64(1), ev.VotesFor)
	require.Equal(t, uint64(2), ev.VotesAgainst)
	require.Equal(t, uint64(3), ev.MinQuorum)
	require.Empty(t, h.calls)
}

func TestQuorumNotMet(t *testing.T) {
	h := newHarness(t, 3, 300)
	id := h.propose(t, genesis)
	for _, a := range []common.Address{alice, bob} {
		_, err := h.engine.Deposit(a, units(1))
		require.NoError(t, err)
		_, err = h.engine.Vote(a, id, true, genesis)
		require.NoError(t, err)
	}
	ev, err := h.engine.FinishProposal(context.Background(), id, genesis.Add(300*time.Second))
	require.NoError(t, err)
	require.Equal(t, ProposalStatusRejected, ev.Status)
	require.Equal(t, uint64(2), ev.VotesFor)
	require.Empty(t, h.calls)
}

func TestVotePreconditions(t *testing.T) {
	h := newHarness(t, 3, 300)

	_, err := h.engine.Vote(alice, 0, true, genesis)
	require.ErrorIs(t, err, ErrNoVotingRights)

	id := h.propose(t, genesis)
	_, err = h.engine.Vote(alice, id, true, genesis)
	require.ErrorIs(t, err, ErrNoVotingRights)

	_, err = h.engine.Deposit(alice, units(1))
	require.NoError(t, err)
	_, err = h.engine.Vote(alice, 7, true, genesis)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = h.engine.Vote(alice, id, true, genesis.Add(299*time.Second))
	require.NoError(t, err)
	_, err = h.engine.Vote(alice, id, false, genesis.Add(299*time.Second))
	require.ErrorIs(t, err, ErrAlreadyVoted)

	_, err = h.engine.Deposit(bob, units(1))
	require.NoError(t, err)
	_, err = h.engine.Vote(bob, id, true, genesis.Add(300*time.Second))
	require.ErrorIs(t, err, ErrVotingWindowClosed)

	_, err = h.engine.FinishProposal(context.Background(), id, genesis.Add(300*time.Second))
	require.NoError(t, err)
	_, err = h.engine.Vote(bob, id, true, genesis.Add(400*time.Second))
	require.ErrorIs(t, err, ErrAlreadyResolved)

	p, err := h.engine.Proposal(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), p.TotalVotes())
}

func TestFinishPreconditions(t *testing.T) {
	h := newHarness(t, 1, 300)

	_, err := h.engine.FinishProposal(context.Background(), 0, genesis)
	require.ErrorIs(t, err, ErrNotFound)

	id := h.propose(t, genesis)
	_, err = h.engine.FinishProposal(context.Background(), id, genesis.Add(299*time.Second))
	require.ErrorIs(t, err, ErrDebateNotOver)

	_, err = h.engine.FinishProposal(context.Background(), id, genesis.Add(300*time.Second))
	require.NoError(t, err)
	_, err = h.engine.FinishProposal(context.Background(), id, genesis.Add(301*time.Second))
	require.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestUnboundedDebatePeriod(t *testing.T) {
	h := newHarness(t, 1, math.MaxUint64)
	id := h.propose(t, genesis)
	_, err := h.engine.Deposit(alice, units(1))
	require.NoError(t, err)
	_, err = h.engine.Vote(alice, id, true, genesis)
	require.NoError(t, err)

	_, err = h.engine.FinishProposal(context.Background(), id, genesis.Add(time.Second))
	require.ErrorIs(t, err, ErrDebateNotOver)
	_, err = h.engine.FinishProposal(context.Background(), id, time.Unix(1<<62, 0))
	require.ErrorIs(t, err, ErrDebateNotOver)
}

func TestDebateEndSaturates(t *testing.T) {
	p := &Proposal{StartTime: genesis.Unix()}
	require.Equal(t, genesis.Unix()+300, p.DebateEnd(300))
	require.Equal(t, int64(math.MaxInt64), p.DebateEnd(math.MaxInt64))
	require.Equal(t, int64(math.MaxInt64), p.DebateEnd(math.MaxUint64))

	p.StartTime = -10
	require.Equal(t, int64(math.MaxInt64-10), p.DebateEnd(math.MaxInt64))
	require.Equal(t, int64(math.MaxInt64), p.DebateEnd(math.MaxInt64+10))
}

func TestExecutionFailureKeepsFinished(t *testing.T) {
	store, ledger := NewMemStore(), NewMemLedger()
	ledger.Mint(alice, units(10))
	failing := ExecutorFunc(func(context.Context, common.Address, []byte) error {
		return errors.New("target reverted")
	})
	e, err := NewEngine(Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}, store, ledger, failing, nil)
	require.NoError(t, err)

	ev, err := e.AddProposal(chair, target, "", []byte{1}, genesis)
	require.NoError(t, err)
	_, err = e.Deposit(alice, units(1))
	require.NoError(t, err)
	_, err = e.Vote(alice, ev.ProposalID, true, genesis)
	require.NoError(t, err)

	res, err := e.FinishProposal(context.Background(), ev.ProposalID, genesis.Add(180*time.Second))
	require.NoError(t, err)
	require.Equal(t, ProposalStatusFinished, res.Status)
	require.Equal(t, "target reverted", res.ExecError)

	p, err := e.Proposal(ev.ProposalID)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusFinished, p.Status)
}

func TestExecutorSeesFinishedStatus(t *testing.T) {
	store, ledger := NewMemStore(), NewMemLedger()
	ledger.Mint(alice, units(10))
	var observed ProposalStatus
	exec := ExecutorFunc(func(context.Context, common.Address, []byte) error {
		p, err := store.GetProposal(0)
		if err != nil {
			return err
		}
		observed = p.Status
		return nil
	})
	e, err := NewEngine(Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}, store, ledger, exec, nil)
	require.NoError(t, err)
	_, err = e.AddProposal(chair, target, "", []byte{1}, genesis)
	require.NoError(t, err)
	_, err = e.Deposit(alice, units(1))
	require.NoError(t, err)
	_, err = e.Vote(alice, 0, true, genesis)
	require.NoError(t, err)
	_, err = e.FinishProposal(context.Background(), 0, genesis.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, ProposalStatusFinished, observed)
}

func TestWithdrawLifecycle(t *testing.T) {
	h := newHarness(t, 1, 300)

	_, err := h.engine.Withdraw(alice, genesis)
	require.ErrorIs(t, err, ErrNothingToWithdraw)

	id := h.propose(t, genesis)
	_, err = h.engine.Deposit(alice, units(100))
	require.NoError(t, err)
	_, err = h.engine.Vote(alice, id, true, genesis.Add(time.Second))
	require.NoError(t, err)

	_, err = h.engine.Withdraw(alice, genesis.Add(299*time.Second))
	require.ErrorIs(t, err, ErrActiveVoteWindow)
	_, err = h.engine.Withdraw(alice, genesis.Add(300*time.Second))
	require.ErrorIs(t, err, ErrUnresolvedVote)

	_, err = h.engine.FinishProposal(context.Background(), id, genesis.Add(300*time.Second))
	require.NoError(t, err)
	ev, err := h.engine.Withdraw(alice, genesis.Add(300*time.Second))
	require.NoError(t, err)
	require.Equal(t, units(100), ev.Amount)

	_, err = h.engine.Withdraw(alice, genesis.Add(301*time.Second))
	require.ErrorIs(t, err, ErrNothingToWithdraw)
	h.escrowInvariant(t)
}

func TestWithdrawWithoutVote(t *testing.T) {
	h := newHarness(t, 3, 300)
	h.propose(t, genesis)
	_, err := h.engine.Deposit(bob, units(7))
	require.NoError(t, err)
	ev, err := h.engine.Withdraw(bob, genesis)
	require.NoError(t, err)
	require.Equal(t, units(7), ev.Amount)
	h.escrowInvariant(t)
}

func TestWithdrawLockedByEveryOpenVote(t *testing.T) {
	h := newHarness(t, 1, 300)
	first := h.propose(t, genesis)
	second := h.propose(t, genesis.Add(200*time.Second))

	_, err := h.engine.Deposit(alice, units(10))
	require.NoError(t, err)
	_, err = h.engine.Vote(alice, second, true, genesis.Add(210*time.Second))
	require.NoError(t, err)
	_, err = h.engine.Vote(alice, first, false, genesis.Add(220*time.Second))
	require.NoError(t, err)

	// first expires at 300, second at 500
	_, err = h.engine.FinishProposal(context.Background(), first, genesis.Add(300*time.Second))
	require.NoError(t, err)
	_, err = h.engine.Withdraw(alice, genesis.Add(320*time.Second))
	require.ErrorIs(t, err, ErrActiveVoteWindow)
	_, err = h.engine.Withdraw(alice, genesis.Add(500*time.Second))
	require.ErrorIs(t, err, ErrUnresolvedVote)

	_, err = h.engine.FinishProposal(context.Background(), second, genesis.Add(500*time.Second))
	require.NoError(t, err)
	_, err = h.engine.Withdraw(alice, genesis.Add(500*time.Second))
	require.NoError(t, err)
}

type brokenLedger struct {
	*MemLedger
}

func (brokenLedger) TransferOut(common.Address, *uint256.Int) error {
	return errors.New("token paused")
}

func TestWithdrawTransferFailure(t *testing.T) {
	ledger := brokenLedger{NewMemLedger()}
	ledger.Mint(alice, units(10))
	store := NewMemStore()
	e, err := NewEngine(Params{Chairperson: chair, MinQuorum: 1, DebatePeriod: 180}, store, ledger, nil, nil)
	require.NoError(t, err)
	_, err = e.AddProposal(chair, target, "", []byte{1}, genesis)
	require.NoError(t, err)
	_, err = e.Deposit(alice, units(4))
	require.NoError(t, err)

	_, err = e.Withdraw(alice, genesis)
	require.ErrorIs(t, err, ErrTransferFailed)
	v, err := e.Voter(alice)
	require.NoError(t, err)
	require.Equal(t, units(4), v.Deposited)
}
