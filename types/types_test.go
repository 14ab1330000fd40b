package types

import (
	"testing"

	"github.com/calehh/hac-dao/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	alice  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	target = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

func TestEventProposalResolvedOutcome(t *testing.T) {
	finished := &dao.EventProposalResolved{
		ProposalID: 3, Status: dao.ProposalStatusFinished, Recipient: target,
		VotesFor: 2, VotesAgainst: 1, MinQuorum: 3, ExecError: "target reverted",
	}
	ev := EncodeEventProposalResolved(finished)
	require.Equal(t, EventProposalFinishedType, ev.Type)
	got := DecodeEventProposalResolved(ev)
	require.NotNil(t, got)
	require.Equal(t, dao.ProposalStatusFinished, got.Status)
	require.Equal(t, target, got.Recipient)
	require.Equal(t, "target reverted", got.ExecError)

	rejected := &dao.EventProposalResolved{
		ProposalID: 4, Status: dao.ProposalStatusRejected, VotesFor: 1, VotesAgainst: 2, MinQuorum: 3,
	}
	ev = EncodeEventProposalResolved(rejected)
	require.Equal(t, EventProposalRejectedType, ev.Type)
	got = DecodeEventProposalResolved(ev)
	require.NotNil(t, got)
	require.Equal(t, uint64(1), got.VotesFor)
	require.Equal(t, uint64(2), got.VotesAgainst)
	require.Equal(t, uint64(3), got.MinQuorum)

	ev.Type = EventDepositType
	require.Nil(t, DecodeEventProposalResolved(ev))
}

func TestEventAmountsKeepPrecision(t *testing.T) {
	amount, err := uint256.FromDecimal("123456789000000000000000")
	require.NoError(t, err)
	ev := EncodeEventDeposit(&dao.EventDeposit{Account: alice, Amount: amount, Balance: amount})
	got := DecodeEventDeposit(ev)
	require.NotNil(t, got)
	require.Equal(t, alice, got.Account)
	require.Equal(t, amount, got.Amount)

	action := &EventAction{Seq: 1, ProposalID: 0, Recipient: target, Payload: []byte{0xde, 0xad}}
	require.Equal(t, action, DecodeEventAction(EncodeEventAction(action)))
}

func TestDAOGenesisValidate(t *testing.T) {
	g := DefaultDAOGenesis(alice)
	require.NoError(t, g.Validate())
	require.Equal(t, dao.Params{Chairperson: alice, MinQuorum: 3, DebatePeriod: 600}, g.Params())

	g.DebatePeriod = 100
	require.ErrorIs(t, g.Validate(), dao.ErrInvalidDebatePeriod)

	g = DefaultDAOGenesis(alice)
	g.MinQuorum = 0
	require.Error(t, g.Validate())

	g = DefaultDAOGenesis(alice)
	g.Balances = append(g.Balances, GenesisBalance{Address: "0xnotanaddress", Amount: "1"})
	require.Error(t, g.Validate())

	g = DefaultDAOGenesis(alice)
	g.Balances = append(g.Balances, g.Balances[0])
	require.Error(t, g.Validate())

	_, err := ParseDAOGenesis([]byte(`{"token":"DAO","chairperson":"` + alice.Hex() + `","min_quorum":3,"debate_period":300}`))
	require.NoError(t, err)
}
