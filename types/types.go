package types

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/calehh/hac-dao/dao"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventProposalCreatedType  = "proposal_created"
	EventDepositType          = "deposit"
	EventVotedType            = "voted"
	EventProposalFinishedType = "proposal_finished"
	EventProposalRejectedType = "proposal_rejected"
	EventWithdrawType         = "withdraw"
	EventActionType           = "action"
	EventTransferType         = "transfer"
)

type EventAction struct {
	Seq        uint64
	ProposalID uint64
	Recipient  common.Address
	Payload    []byte
}

type EventTransfer struct {
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.ToBig().String()
}

func EncodeEventProposalCreated(event *dao.EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalID), Index: true},
			{Key: "recipient", Value: event.Recipient.Hex(), Index: true},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "start", Value: fmt.Sprintf("%v", event.StartTime), Index: false},
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *dao.EventProposalCreated {
	event := &dao.EventProposalCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalID = proposal
		case "recipient":
			event.Recipient = common.HexToAddress(v.Value)
		case "description":
			event.Description = v.Value
		case "start":
			start, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.StartTime = start
		}
	}
	return event
}

func EncodeEventDeposit(event *dao.EventDeposit) abci.Event {
	return abci.Event{
		Type: EventDepositType,
		Attributes: []abci.EventAttribute{
			{Key: "account", Value: event.Account.Hex(), Index: true},
			{Key: "amount", Value: amountString(event.Amount), Index: false},
			{Key: "balance", Value: amountString(event.Balance), Index: false},
		},
	}
}

func DecodeEventDeposit(originEvent abci.Event) *dao.EventDeposit {
	event := &dao.EventDeposit{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "account":
			event.Account = common.HexToAddress(v.Value)
		case "amount":
			if event.Amount, err = uint256.FromDecimal(v.Value); err != nil {
				return nil
			}
		case "balance":
			if event.Balance, err = uint256.FromDecimal(v.Value); err != nil {
				return nil
			}
		}
	}
	return event
}

func EncodeEventVoted(event *dao.EventVoted) abci.Event {
	return abci.Event{
		Type: EventVotedType,
		Attributes: []abci.EventAttribute{
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalID), Index: true},
			{Key: "support", Value: fmt.Sprintf("%v", event.Support), Index: false},
		},
	}
}

func DecodeEventVoted(originEvent abci.Event) *dao.EventVoted {
	event := &dao.EventVoted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "voter":
			event.Voter = common.HexToAddress(v.Value)
		case "proposal":
			proposal, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalID = proposal
		case "support":
			support, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Support = support
		}
	}
	return event
}

// EncodeEventProposalResolved emits proposal_finished or proposal_rejected
// depending on the outcome.
func EncodeEventProposalResolved(event *dao.EventProposalResolved) abci.Event {
	if event.Approved() {
		attrs := []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalID), Index: true},
			{Key: "recipient", Value: event.Recipient.Hex(), Index: true},
			{Key: "votesFor", Value: fmt.Sprintf("%v", event.VotesFor), Index: false},
			{Key: "votesAgainst", Value: fmt.Sprintf("%v", event.VotesAgainst), Index: false},
		}
		if event.ExecError != "" {
			attrs = append(attrs, abci.EventAttribute{Key: "execError", Value: event.ExecError, Index: false})
		}
		return abci.Event{Type: EventProposalFinishedType, Attributes: attrs}
	}
	return abci.Event{
		Type: EventProposalRejectedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalID), Index: true},
			{Key: "votesFor", Value: fmt.Sprintf("%v", event.VotesFor), Index: false},
			{Key: "votesAgainst", Value: fmt.Sprintf("%v", event.VotesAgainst), Index: false},
			{Key: "minQuorum", Value: fmt.Sprintf("%v", event.MinQuorum), Index: false},
		},
	}
}

func DecodeEventProposalResolved(originEvent abci.Event) *dao.EventProposalResolved {
	event := &dao.EventProposalResolved{}
	switch originEvent.Type {
	case EventProposalFinishedType:
		event.Status = dao.ProposalStatusFinished
	case EventProposalRejectedType:
		event.Status = dao.ProposalStatusRejected
	default:
		return nil
	}
	for _, v := range originEvent.Attributes {
		var err error
		switch v.Key {
		case "proposal":
			event.ProposalID, err = strconv.ParseUint(v.Value, 10, 64)
		case "recipient":
			event.Recipient = common.HexToAddress(v.Value)
		case "votesFor":
			event.VotesFor, err = strconv.ParseUint(v.Value, 10, 64)
		case "votesAgainst":
			event.VotesAgainst, err = strconv.ParseUint(v.Value, 10, 64)
		case "minQuorum":
			event.MinQuorum, err = strconv.ParseUint(v.Value, 10, 64)
		case "execError":
			event.ExecError = v.Value
		}
		if err != nil {
			return nil
		}
	}
	return event
}

func EncodeEventWithdraw(event *dao.EventWithdraw) abci.Event {
	return abci.Event{
		Type: EventWithdrawType,
		Attributes: []abci.EventAttribute{
			{Key: "account", Value: event.Account.Hex(), Index: true},
			{Key: "amount", Value: amountString(event.Amount), Index: false},
		},
	}
}

func DecodeEventWithdraw(originEvent abci.Event) *dao.EventWithdraw {
	event := &dao.EventWithdraw{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "account":
			event.Account = common.HexToAddress(v.Value)
		case "amount":
			if event.Amount, err = uint256.FromDecimal(v.Value); err != nil {
				return nil
			}
		}
	}
	return event
}

func EncodeEventAction(event *EventAction) abci.Event {
	return abci.Event{
		Type: EventActionType,
		Attributes: []abci.EventAttribute{
			{Key: "seq", Value: fmt.Sprintf("%v", event.Seq), Index: true},
			{Key: "proposal", Value: fmt.Sprintf("%v", event.ProposalID), Index: true},
			{Key: "recipient", Value: event.Recipient.Hex(), Index: true},
			{Key: "payload", Value: hex.EncodeToString(event.Payload), Index: false},
		},
	}
}

func DecodeEventAction(originEvent abci.Event) *EventAction {
	event := &EventAction{}
	for _, v := range originEvent.Attributes {
		var err error
		switch v.Key {
		case "seq":
			event.Seq, err = strconv.ParseUint(v.Value, 10, 64)
		case "proposal":
			event.ProposalID, err = strconv.ParseUint(v.Value, 10, 64)
		case "recipient":
			event.Recipient = common.HexToAddress(v.Value)
		case "payload":
			event.Payload, err = hex.DecodeString(v.Value)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

func EncodeEventTransfer(event *EventTransfer) abci.Event {
	return abci.Event{
		Type: EventTransferType,
		Attributes: []abci.EventAttribute{
			{Key: "from", Value: event.From.Hex(), Index: true},
			{Key: "to", Value: event.To.Hex(), Index: true},
			{Key: "amount", Value: amountString(event.Amount), Index: false},
		},
	}
}

func DecodeEventTransfer(originEvent abci.Event) *EventTransfer {
	event := &EventTransfer{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "from":
			event.From = common.HexToAddress(v.Value)
		case "to":
			event.To = common.HexToAddress(v.Value)
		case "amount":
			if event.Amount, err = uint256.FromDecimal(v.Value); err != nil {
				return nil
			}
		}
	}
	return event
}
