package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrNoPendingState = errors.New("no finalized state to commit")
)

func (app *DAOApp) blockState() (st *state.State) {
	if app.genesis != nil {
		st = app.genesis
		app.genesis = nil
		return
	}
	return app.db.NewState()
}

func (app *DAOApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.DAOTx, err error) {
	btx, err = tx.UnmarshalDAOTx(txDat)
	if err != nil {
		return
	}
	err = st.Verify(btx, allowNonceGap)
	return
}

func (app *DAOApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: abcitypes.CodeTypeOK}
	defer func() {
		checkTxTotal.WithLabelValues(boolLabel(res.Code == abcitypes.CodeTypeOK)).Inc()
	}()

	// Mempool checks run ahead of the next block, so they use the later of
	// the committed block time and the local clock.
	st := app.db.CheckState()
	if now := time.Now(); now.After(st.BlockTime()) {
		st.SetBlock(st.Header().Height+1, now)
	}
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Debug("check tx parse fail", "err", err)
		app.reject(res, err)
		return res, nil
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.reject(res, tx.ErrUnsupportedTxType)
		return res, nil
	}
	if _, err = h.Check(ctx, st, btx); err != nil {
		app.logger.Debug("check tx fail", "type", btx.Type, "sender", btx.Sender, "err", err)
		app.reject(res, err)
		return res, nil
	}
	return res, nil
}

func (app *DAOApp) reject(res *abcitypes.ResponseCheckTx, err error) {
	res.Code = ErrorCode(err)
	res.Codespace = Codespace
	res.Log = err.Error()
}

// PrepareProposal keeps every decodable tx within the size limit; execution
// failures are reported per tx in FinalizeBlock.
func (app *DAOApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if _, err := tx.UnmarshalDAOTx(stx); err != nil {
			app.logger.Error("unsupported tx, parse fail", "err", err)
			continue
		}
		size += int64(len(stx))
		if proposal.MaxTxBytes > 0 && size > proposal.MaxTxBytes {
			break
		}
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *DAOApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}
	for _, stx := range proposal.Txs {
		if _, err := tx.UnmarshalDAOTx(stx); err != nil {
			app.logger.Error("reject proposal, undecodable tx", "height", proposal.Height, "err", err)
			res.Status = abcitypes.ResponseProcessProposal_REJECT
			return res, nil
		}
	}
	return res, nil
}

// deliverTx applies one tx. The sender's nonce is consumed whenever the tx
// is authentic; its other effects are kept only if it succeeds.
func (app *DAOApp) deliverTx(ctx context.Context, st *state.State, stx []byte) (*state.State, *abcitypes.ExecTxResult) {
	fail := func(err error, btx *tx.DAOTx) *abcitypes.ExecTxResult {
		tp := tx.DAOTxTypeUnknown
		if btx != nil {
			tp = btx.Type
		}
		code := ErrorCode(err)
		txTotal.WithLabelValues(tp.String(), codeLabel(code)).Inc()
		return &abcitypes.ExecTxResult{Code: code, Codespace: Codespace, Log: err.Error()}
	}
	btx, err := app.parseTx(st, stx, false)
	if err != nil {
		return st, fail(err, btx)
	}
	if err = st.IncNonce(btx.Sender); err != nil {
		return st, fail(err, btx)
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return st, fail(tx.ErrUnsupportedTxType, btx)
	}
	scratch := st.Clone()
	result, err := h.Process(ctx, scratch, btx)
	if err != nil {
		app.logger.Info("tx failed", "type", btx.Type, "sender", btx.Sender, "err", err)
		return st, fail(err, btx)
	}
	txTotal.WithLabelValues(btx.Type.String(), codeLabel(result.Code)).Inc()
	for _, ev := range result.Events {
		switch ev.Type {
		case types.EventProposalFinishedType:
			resolutionsTotal.WithLabelValues(dao.ProposalStatusFinished.String()).Inc()
		case types.EventProposalRejectedType:
			resolutionsTotal.WithLabelValues(dao.ProposalStatusRejected.String()).Inc()
		}
	}
	return scratch, result
}

func (app *DAOApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	start := time.Now()
	defer func() {
		finalizeDuration.Observe(time.Since(start).Seconds())
	}()
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))

	st := app.blockState()
	st.SetBlock(uint64(req.Height), req.Time)
	res := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		st, res[i] = app.deliverTx(ctx, st, stx)
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *DAOApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoPendingState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.logger.Info("Commit", "height", app.st.Header().Height)
	app.st = nil
	return &abcitypes.ResponseCommit{}, nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
