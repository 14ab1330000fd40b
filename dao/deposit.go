package dao

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Deposit escrows amount for sender. The voter record is written before the
// ledger pull and restored if the pull fails.
func (e *Engine) Deposit(sender common.Address, amount *uint256.Int) (*EventDeposit, error) {
	if amount == nil || amount.IsZero() {
		return nil, ErrEmptyDeposit
	}
	if e.store.ProposalCount() == 0 {
		return nil, ErrNoProposalYet
	}
	voter, err := e.store.GetVoter(sender)
	if err != nil {
		return nil, err
	}
	prev := voter.Clone()
	balance, overflow := new(uint256.Int).AddOverflow(voter.Deposited, amount)
	if overflow {
		return nil, ErrBalanceOverflow
	}
	voter.Deposited = balance
	if err = e.store.SetVoter(voter); err != nil {
		return nil, err
	}
	if err = e.ledger.TransferInto(sender, amount); err != nil {
		if rerr := e.store.SetVoter(prev); rerr != nil {
			e.logger.Error("restore voter fail", "account", sender, "err", rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return &EventDeposit{
		Account: sender,
		Amount:  new(uint256.Int).Set(amount),
		Balance: new(uint256.Int).Set(balance),
	}, nil
}

// Withdraw releases the sender's whole deposit once none of its votes is
// pending. Locks on resolved proposals are dropped on the way.
func (e *Engine) Withdraw(sender common.Address, now time.Time) (*EventWithdraw, error) {
	voter, err := e.store.GetVoter(sender)
	if err != nil {
		return nil, err
	}
	if !voter.HasDeposit() {
		return nil, ErrNothingToWithdraw
	}
	if err = e.checkLocks(voter, now); err != nil {
		return nil, err
	}

	prev := voter.Clone()
	amount := new(uint256.Int).Set(voter.Deposited)
	voter.Deposited = new(uint256.Int)
	voter.Locks = []uint64{}
	if err = e.store.SetVoter(voter); err != nil {
		return nil, err
	}
	if err = e.ledger.TransferOut(sender, amount); err != nil {
		if rerr := e.store.SetVoter(prev); rerr != nil {
			e.logger.Error("restore voter fail", "account", sender, "err", rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return &EventWithdraw{Account: sender, Amount: amount}, nil
}

func (e *Engine) checkLocks(voter *Voter, now time.Time) error {
	unresolved := false
	for _, id := range voter.Locks {
		p, err := e.store.GetProposal(id)
		if err != nil {
			return err
		}
		if p.Status.Resolved() {
			continue
		}
		if now.Unix() < p.DebateEnd(e.params.DebatePeriod) {
			return ErrActiveVoteWindow
		}
		unresolved = true
	}
	if unresolved {
		return ErrUnresolvedVote
	}
	return nil
}
