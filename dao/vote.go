package dao

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Vote records one vote for sender. Each depositing account counts once
// regardless of its deposit size.
func (e *Engine) Vote(sender common.Address, id uint64, support bool, now time.Time) (*EventVoted, error) {
	voter, err := e.store.GetVoter(sender)
	if err != nil {
		return nil, err
	}
	if !voter.HasDeposit() {
		return nil, ErrNoVotingRights
	}
	p, err := e.Proposal(id)
	if err != nil {
		return nil, err
	}
	if p.Status != ProposalStatusAdded {
		return nil, ErrAlreadyResolved
	}
	voted, err := e.store.HasVoted(sender, id)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}
	if now.Unix() >= p.DebateEnd(e.params.DebatePeriod) {
		return nil, ErrVotingWindowClosed
	}

	if support {
		p.VotesFor++
	} else {
		p.VotesAgainst++
	}
	if err = e.store.SetProposal(p); err != nil {
		return nil, err
	}
	if err = e.store.SetVoted(sender, id, support); err != nil {
		return nil, err
	}
	voter.Locks, err = e.pruneLocks(voter.Locks)
	if err != nil {
		return nil, err
	}
	voter.Locks = append(voter.Locks, id)
	if err = e.store.SetVoter(voter); err != nil {
		return nil, err
	}
	return &EventVoted{Voter: sender, ProposalID: id, Support: support}, nil
}

func (e *Engine) pruneLocks(locks []uint64) ([]uint64, error) {
	kept := locks[:0]
	for _, id := range locks {
		p, err := e.store.GetProposal(id)
		if err != nil {
			return nil, err
		}
		if !p.Status.Resolved() {
			kept = append(kept, id)
		}
	}
	return kept, nil
}
