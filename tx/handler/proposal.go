package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type AddProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewAddProposalTxHandler(logger cmtlog.Logger) (h *AddProposalTxHandler) {
	logger = logger.With("module", "addProposalTx")
	h = &AddProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *AddProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h, st, btx)
}

func (h *AddProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	ptx, err := payload[tx.AddProposalTx](btx)
	if err != nil {
		return nil, err
	}
	e, err := engine(st, h.logger)
	if err != nil {
		return nil, err
	}
	event, err := e.AddProposal(btx.Sender, ptx.Recipient, ptx.Description, ptx.Payload, st.BlockTime())
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventProposalCreated(event)},
	}
	return
}

type FinishProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewFinishProposalTxHandler(logger cmtlog.Logger) (h *FinishProposalTxHandler) {
	logger = logger.With("module", "finishProposalTx")
	h = &FinishProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *FinishProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h, st, btx)
}

// Process resolves the proposal and, on approval, also emits the action the
// state recorded for the relay.
func (h *FinishProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	ftx, err := payload[tx.FinishProposalTx](btx)
	if err != nil {
		return nil, err
	}
	e, err := engine(st, h.logger)
	if err != nil {
		return nil, err
	}
	before := st.ActionCount()
	event, err := e.FinishProposal(ctx, ftx.Proposal, st.BlockTime())
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventProposalResolved(event)},
	}
	for seq := before; seq < st.ActionCount(); seq++ {
		a, err := st.GetAction(seq)
		if err != nil {
			return nil, err
		}
		res.Events = append(res.Events, types.EncodeEventAction(&types.EventAction{
			Seq:        a.Seq,
			ProposalID: a.ProposalID,
			Recipient:  a.Recipient,
			Payload:    a.Payload,
		}))
	}
	if event.ExecError != "" {
		res.Log = event.ExecError
	}
	return
}
