package tx

import (
	"errors"
)

type DAOTxType uint8

const (
	DAOTxTypeUnknown        DAOTxType = 0
	DAOTxTypeAddProposal    DAOTxType = 1
	DAOTxTypeDeposit        DAOTxType = 2
	DAOTxTypeVote           DAOTxType = 3
	DAOTxTypeFinishProposal DAOTxType = 4
	DAOTxTypeWithdraw       DAOTxType = 5
	DAOTxTypeTransfer       DAOTxType = 6
)

func (t DAOTxType) String() string {
	switch t {
	case DAOTxTypeAddProposal:
		return "add_proposal"
	case DAOTxTypeDeposit:
		return "deposit"
	case DAOTxTypeVote:
		return "vote"
	case DAOTxTypeFinishProposal:
		return "finish_proposal"
	case DAOTxTypeWithdraw:
		return "withdraw"
	case DAOTxTypeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

const (
	DAOTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingSignature     = errors.New("missing signature")
)
