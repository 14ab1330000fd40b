package dao

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type EventProposalCreated struct {
	ProposalID  uint64
	Recipient   common.Address
	Description string
	StartTime   int64
}

type EventDeposit struct {
	Account common.Address
	Amount  *uint256.Int
	Balance *uint256.Int
}

type EventVoted struct {
	Voter      common.Address
	ProposalID uint64
	Support    bool
}

// EventProposalResolved is emitted for both outcomes. ExecError is set when
// an approved proposal's action failed; the status stays Finished.
type EventProposalResolved struct {
	ProposalID   uint64
	Status       ProposalStatus
	Recipient    common.Address
	Payload      []byte
	VotesFor     uint64
	VotesAgainst uint64
	MinQuorum    uint64
	ExecError    string
}

func (e *EventProposalResolved) Approved() bool {
	return e.Status == ProposalStatusFinished
}

type EventWithdraw struct {
	Account common.Address
	Amount  *uint256.Int
}
