package dao

import (
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

// Engine applies governance operations against a Store, moving collateral
// through a Ledger and dispatching approved actions to an Executor. It is
// not safe for concurrent use; callers serialize operations.
type Engine struct {
	params   Params
	access   *AccessRegistry
	store    Store
	ledger   Ledger
	executor Executor
	logger   cmtlog.Logger
}

func NewEngine(params Params, store Store, ledger Ledger, executor Executor, logger cmtlog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if executor == nil {
		executor = NopExecutor
	}
	if logger == nil {
		logger = cmtlog.NewNopLogger()
	}
	access := NewAccessRegistry()
	access.grant(RoleChairperson, params.Chairperson)
	return &Engine{
		params:   params,
		access:   access,
		store:    store,
		ledger:   ledger,
		executor: executor,
		logger:   logger.With("module", "dao"),
	}, nil
}

func (e *Engine) Params() Params {
	return e.params
}

func (e *Engine) HasRole(role common.Hash, account common.Address) bool {
	return e.access.HasRole(role, account)
}

func (e *Engine) Voter(account common.Address) (*Voter, error) {
	return e.store.GetVoter(account)
}

func (e *Engine) HasVoted(account common.Address, id uint64) (bool, error) {
	return e.store.HasVoted(account, id)
}
