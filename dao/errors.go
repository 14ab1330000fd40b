package dao

import "errors"

var (
	ErrInvalidDebatePeriod = errors.New("the debate period can be a minimum of 180 seconds")
	ErrInvalidMinQuorum    = errors.New("min quorum must be positive")
	ErrInvalidChairperson  = errors.New("chairperson address is empty")

	ErrAccessDenied       = errors.New("caller is not a chairperson")
	ErrNotFound           = errors.New("proposal not found")
	ErrInvalidRecipient   = errors.New("invalid proposal recipient")
	ErrInvalidPayload     = errors.New("invalid proposal payload")
	ErrInvalidDescription = errors.New("proposal description too long")

	ErrEmptyDeposit    = errors.New("deposit some tokens first")
	ErrNoProposalYet   = errors.New("proposal not added yet")
	ErrBalanceOverflow = errors.New("deposited balance overflow")

	ErrNoVotingRights     = errors.New("no voting rights")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrVotingWindowClosed = errors.New("voting period over")

	ErrDebateNotOver     = errors.New("voting period not over yet")
	ErrAlreadyResolved   = errors.New("proposal already executed")
	ErrNothingToWithdraw = errors.New("no tokens to withdraw")
	ErrActiveVoteWindow  = errors.New("active voting")
	ErrUnresolvedVote    = errors.New("cannot withdraw while voting")

	ErrTransferFailed = errors.New("collateral transfer failed")
)
