package dao

import (
	"context"
	"time"
)

// FinishProposal resolves a proposal whose debate window has elapsed. An
// approved proposal is stored as Finished before its action runs; a failing
// action is reported in the event and does not revert the status.
func (e *Engine) FinishProposal(ctx context.Context, id uint64, now time.Time) (*EventProposalResolved, error) {
	p, err := e.Proposal(id)
	if err != nil {
		return nil, err
	}
	if p.Status != ProposalStatusAdded {
		return nil, ErrAlreadyResolved
	}
	if now.Unix() < p.DebateEnd(e.params.DebatePeriod) {
		return nil, ErrDebateNotOver
	}

	if p.TotalVotes() >= e.params.MinQuorum && p.VotesFor > p.VotesAgainst {
		p.Status = ProposalStatusFinished
	} else {
		p.Status = ProposalStatusRejected
	}
	if err = e.store.SetProposal(p); err != nil {
		return nil, err
	}

	ev := &EventProposalResolved{
		ProposalID:   p.ID,
		Status:       p.Status,
		Recipient:    p.Recipient,
		Payload:      p.Payload,
		VotesFor:     p.VotesFor,
		VotesAgainst: p.VotesAgainst,
		MinQuorum:    e.params.MinQuorum,
	}
	if p.Status == ProposalStatusRejected {
		e.logger.Info("proposal rejected", "id", id, "for", p.VotesFor, "against", p.VotesAgainst, "quorum", e.params.MinQuorum)
		return ev, nil
	}

	if err = e.executor.Execute(ContextWithProposal(ctx, id), p.Recipient, p.Payload); err != nil {
		e.logger.Error("proposal action failed", "id", id, "recipient", p.Recipient, "err", err)
		ev.ExecError = err.Error()
		return ev, nil
	}
	e.logger.Info("proposal finished", "id", id, "for", p.VotesFor, "against", p.VotesAgainst)
	return ev, nil
}
