package state

import (
	"errors"
	"fmt"

	"github.com/calehh/hac-dao/dao"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEscrowTransfer      = errors.New("escrow account is not transferable")
)

var _ dao.Ledger = (*State)(nil)

// GetAccount never returns nil; unknown addresses get an empty account.
func (s *State) GetAccount(addr common.Address) (acnt *Account, err error) {
	if a, ok := s.acnts[addr]; ok {
		return a, nil
	}
	val, err := s.get(fmt.Sprintf(KeyAccountBody, addr))
	if err != nil {
		return nil, err
	}
	if val == nil {
		acnt = NewAccount(addr)
	} else {
		acnt = new(Account)
		if err = rlp.DecodeBytes(val, acnt); err != nil {
			return nil, err
		}
		if acnt.Balance == nil {
			acnt.Balance = new(uint256.Int)
		}
	}
	s.acnts[addr] = acnt
	return
}

func (s *State) setAccount(a *Account) {
	s.acnts[a.Address] = a
	s.modifiedAcnts[a.Address] = true
}

func (s *State) IncNonce(addr common.Address) error {
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	a.Nonce += 1
	s.setAccount(a)
	return nil
}

// Mint credits amount to addr. Used only when loading genesis balances.
func (s *State) Mint(addr common.Address, amount *uint256.Int) error {
	a, err := s.GetAccount(addr)
	if err != nil {
		return err
	}
	bal, overflow := new(uint256.Int).AddOverflow(a.Balance, amount)
	if overflow {
		return dao.ErrBalanceOverflow
	}
	a.Balance = bal
	s.setAccount(a)
	return nil
}

func (s *State) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	src, err := s.GetAccount(from)
	if err != nil {
		return err
	}
	if src.Balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	dst, err := s.GetAccount(to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	bal, overflow := new(uint256.Int).AddOverflow(dst.Balance, amount)
	if overflow {
		return dao.ErrBalanceOverflow
	}
	src.Balance = new(uint256.Int).Sub(src.Balance, amount)
	dst.Balance = bal
	s.setAccount(src)
	s.setAccount(dst)
	return nil
}

// TransferPublic is a holder-initiated transfer; the escrow account can be
// neither side of it.
func (s *State) TransferPublic(from, to common.Address, amount *uint256.Int) error {
	if from == dao.EscrowAddress || to == dao.EscrowAddress {
		return ErrEscrowTransfer
	}
	return s.Transfer(from, to, amount)
}

func (s *State) BalanceOf(addr common.Address) (*uint256.Int, error) {
	a, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Set(a.Balance), nil
}

// TransferInto moves a deposit into escrow. The depositor's signed tx is the
// authorization; no allowance is kept.
func (s *State) TransferInto(from common.Address, amount *uint256.Int) error {
	return s.Transfer(from, dao.EscrowAddress, amount)
}

func (s *State) TransferOut(to common.Address, amount *uint256.Int) error {
	return s.Transfer(dao.EscrowAddress, to, amount)
}
