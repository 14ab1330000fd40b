package dao

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Executor forwards an approved proposal's payload to its recipient. The
// payload is never decoded by the engine.
type Executor interface {
	Execute(ctx context.Context, recipient common.Address, payload []byte) error
}

type ExecutorFunc func(ctx context.Context, recipient common.Address, payload []byte) error

func (f ExecutorFunc) Execute(ctx context.Context, recipient common.Address, payload []byte) error {
	return f(ctx, recipient, payload)
}

// NopExecutor accepts every action and does nothing.
var NopExecutor Executor = ExecutorFunc(func(context.Context, common.Address, []byte) error {
	return nil
})

type proposalIDKey struct{}

// ContextWithProposal tags ctx with the proposal whose action is executing.
func ContextWithProposal(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, proposalIDKey{}, id)
}

func ProposalFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(proposalIDKey{}).(uint64)
	return id, ok
}
