package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type DepositTxHandler struct {
	logger cmtlog.Logger
}

func NewDepositTxHandler(logger cmtlog.Logger) (h *DepositTxHandler) {
	logger = logger.With("module", "depositTx")
	h = &DepositTxHandler{
		logger: logger,
	}
	return
}

func (h *DepositTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h, st, btx)
}

func (h *DepositTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	dtx, err := payload[tx.DepositTx](btx)
	if err != nil {
		return nil, err
	}
	amount, err := tx.ParseAmount(dtx.Amount)
	if err != nil {
		return nil, err
	}
	e, err := engine(st, h.logger)
	if err != nil {
		return nil, err
	}
	event, err := e.Deposit(btx.Sender, amount)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventDeposit(event)},
	}
	return
}

type WithdrawTxHandler struct {
	logger cmtlog.Logger
}

func NewWithdrawTxHandler(logger cmtlog.Logger) (h *WithdrawTxHandler) {
	logger = logger.With("module", "withdrawTx")
	h = &WithdrawTxHandler{
		logger: logger,
	}
	return
}

func (h *WithdrawTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h, st, btx)
}

func (h *WithdrawTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	if _, err = payload[tx.WithdrawTx](btx); err != nil {
		return nil, err
	}
	e, err := engine(st, h.logger)
	if err != nil {
		return nil, err
	}
	event, err := e.Withdraw(btx.Sender, st.BlockTime())
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventWithdraw(event)},
	}
	return
}
