package dao

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func (e *Engine) AddProposal(sender, recipient common.Address, description string, payload []byte, now time.Time) (*EventProposalCreated, error) {
	if !e.access.HasRole(RoleChairperson, sender) {
		return nil, ErrAccessDenied
	}
	if recipient == (common.Address{}) || recipient == EscrowAddress {
		return nil, ErrInvalidRecipient
	}
	if len(payload) == 0 || len(payload) > MaxPayloadSize {
		return nil, ErrInvalidPayload
	}
	if len(description) > MaxDescriptionLength {
		return nil, ErrInvalidDescription
	}

	p := &Proposal{
		ID:          e.store.ProposalCount(),
		Recipient:   recipient,
		Description: description,
		Payload:     common.CopyBytes(payload),
		Status:      ProposalStatusAdded,
		StartTime:   now.Unix(),
	}
	if err := e.store.SetProposal(p); err != nil {
		return nil, err
	}
	e.logger.Info("proposal created", "id", p.ID, "recipient", recipient, "start", p.StartTime)
	return &EventProposalCreated{
		ProposalID:  p.ID,
		Recipient:   recipient,
		Description: description,
		StartTime:   p.StartTime,
	}, nil
}

func (e *Engine) Proposal(id uint64) (*Proposal, error) {
	if id >= e.store.ProposalCount() {
		return nil, ErrNotFound
	}
	return e.store.GetProposal(id)
}
