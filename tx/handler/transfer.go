package handler

import (
	"context"

	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TransferTxHandler struct {
	logger cmtlog.Logger
}

func NewTransferTxHandler(logger cmtlog.Logger) (h *TransferTxHandler) {
	logger = logger.With("module", "transferTx")
	h = &TransferTxHandler{
		logger: logger,
	}
	return
}

func (h *TransferTxHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	return check(ctx, h, st, btx)
}

func (h *TransferTxHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	ttx, err := payload[tx.TransferTx](btx)
	if err != nil {
		return nil, err
	}
	amount, err := tx.ParseAmount(ttx.Amount)
	if err != nil {
		return nil, err
	}
	if err = st.TransferPublic(btx.Sender, ttx.To, amount); err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventTransfer(&types.EventTransfer{
			From:   btx.Sender,
			To:     ttx.To,
			Amount: amount,
		})},
	}
	return
}
