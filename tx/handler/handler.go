package handler

import (
	"context"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler applies one transaction type. Process mutates st; callers give
// it a scratch clone and keep the result only when no error is returned.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
}

type processor interface {
	Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
}

// check dry-runs the tx against a throwaway copy of st.
func check(ctx context.Context, h processor, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: abcitypes.CodeTypeOK}
	_, err = h.Process(ctx, st.Clone(), btx)
	return
}

func engine(st *state.State, logger cmtlog.Logger) (*dao.Engine, error) {
	return st.Engine(logger)
}

func payload[T any](btx *tx.DAOTx) (*T, error) {
	p, ok := btx.Tx.(*T)
	if !ok || p == nil {
		return nil, tx.ErrInvalidTx
	}
	return p, nil
}

// Handlers returns the handler of every supported tx type.
func Handlers(logger cmtlog.Logger) map[tx.DAOTxType]TxHandler {
	return map[tx.DAOTxType]TxHandler{
		tx.DAOTxTypeAddProposal:    NewAddProposalTxHandler(logger),
		tx.DAOTxTypeDeposit:        NewDepositTxHandler(logger),
		tx.DAOTxTypeVote:           NewVoteTxHandler(logger),
		tx.DAOTxTypeFinishProposal: NewFinishProposalTxHandler(logger),
		tx.DAOTxTypeWithdraw:       NewWithdrawTxHandler(logger),
		tx.DAOTxTypeTransfer:       NewTransferTxHandler(logger),
	}
}
