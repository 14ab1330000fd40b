package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/hac-dao/dao"
	"github.com/ethereum/go-ethereum/common"
)

var _ dao.Executor = (*State)(nil)

// Execute records the action for the relay. The payload is stored as is.
func (s *State) Execute(ctx context.Context, recipient common.Address, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, _ := dao.ProposalFromContext(ctx)
	a := &Action{
		Seq:        s.actionCount,
		ProposalID: id,
		Recipient:  recipient,
		Payload:    common.CopyBytes(payload),
		Height:     s.header.Height,
		Time:       s.header.Time,
	}
	s.actionCount++
	s.newActions = append(s.newActions, a)
	s.logger.Debug("action recorded", "seq", a.Seq, "proposal", id, "recipient", recipient)
	return nil
}

func (s *State) ActionCount() uint64 {
	return s.actionCount
}

func (s *State) GetAction(seq uint64) (*Action, error) {
	if seq >= s.actionCount {
		return nil, ErrNotFound
	}
	for _, a := range s.newActions {
		if a.Seq == seq {
			return a, nil
		}
	}
	val, err := s.get(fmt.Sprintf(KeyActionBody, seq))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	a := new(Action)
	err = json.Unmarshal(val, a)
	return a, err
}
