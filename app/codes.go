package app

import (
	"errors"
	"strconv"

	"github.com/calehh/hac-dao/dao"
	"github.com/calehh/hac-dao/state"
	"github.com/calehh/hac-dao/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

const Codespace = "dao"

const (
	CodeInternal uint32 = 1

	CodeInvalidTx         uint32 = 2
	CodeUnsupportedTxType uint32 = 3
	CodeNonceInvalid      uint32 = 4
	CodeSigInvalid        uint32 = 5
	CodeInvalidAmount     uint32 = 6

	CodeAccessDenied       uint32 = 10
	CodeInvalidRecipient   uint32 = 11
	CodeInvalidPayload     uint32 = 12
	CodeInvalidDescription uint32 = 13
	CodeNotFound           uint32 = 14
	CodeEmptyDeposit       uint32 = 15
	CodeNoProposalYet      uint32 = 16
	CodeNoVotingRights     uint32 = 17
	CodeAlreadyVoted       uint32 = 18
	CodeVotingWindowClosed uint32 = 19
	CodeDebateNotOver      uint32 = 20
	CodeAlreadyResolved    uint32 = 21
	CodeNothingToWithdraw  uint32 = 22
	CodeActiveVoteWindow   uint32 = 23
	CodeUnresolvedVote     uint32 = 24
	CodeTransferFailed     uint32 = 25
	CodeBalanceOverflow    uint32 = 26

	CodeInsufficientBalance uint32 = 30
	CodeEscrowTransfer      uint32 = 31
)

var errCodes = []struct {
	err  error
	code uint32
}{
	{tx.ErrInvalidTx, CodeInvalidTx},
	{tx.ErrUnsupportedTxVersion, CodeInvalidTx},
	{tx.ErrUnsupportedTxType, CodeUnsupportedTxType},
	{state.ErrTxNonceInvalid, CodeNonceInvalid},
	{state.ErrTxSigInvalid, CodeSigInvalid},
	{tx.ErrInvalidAmount, CodeInvalidAmount},
	{state.ErrInvalidAmount, CodeInvalidAmount},

	{dao.ErrAccessDenied, CodeAccessDenied},
	{dao.ErrInvalidRecipient, CodeInvalidRecipient},
	{dao.ErrInvalidPayload, CodeInvalidPayload},
	{dao.ErrInvalidDescription, CodeInvalidDescription},
	{dao.ErrNotFound, CodeNotFound},
	{dao.ErrEmptyDeposit, CodeEmptyDeposit},
	{dao.ErrNoProposalYet, CodeNoProposalYet},
	{dao.ErrNoVotingRights, CodeNoVotingRights},
	{dao.ErrAlreadyVoted, CodeAlreadyVoted},
	{dao.ErrVotingWindowClosed, CodeVotingWindowClosed},
	{dao.ErrDebateNotOver, CodeDebateNotOver},
	{dao.ErrAlreadyResolved, CodeAlreadyResolved},
	{dao.ErrNothingToWithdraw, CodeNothingToWithdraw},
	{dao.ErrActiveVoteWindow, CodeActiveVoteWindow},
	{dao.ErrUnresolvedVote, CodeUnresolvedVote},
	{dao.ErrTransferFailed, CodeTransferFailed},
	{dao.ErrBalanceOverflow, CodeBalanceOverflow},

	{state.ErrInsufficientBalance, CodeInsufficientBalance},
	{state.ErrEscrowTransfer, CodeEscrowTransfer},
}

// ErrorCode maps an execution error to its stable ABCI result code.
func ErrorCode(err error) uint32 {
	if err == nil {
		return abcitypes.CodeTypeOK
	}
	for _, c := range errCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

func codeLabel(code uint32) string {
	return strconv.FormatUint(uint64(code), 10)
}
