package dao

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger is the collateral token the engine escrows deposits in.
type Ledger interface {
	BalanceOf(addr common.Address) (*uint256.Int, error)
	// TransferInto moves amount from the account into the engine's escrow.
	TransferInto(from common.Address, amount *uint256.Int) error
	// TransferOut releases amount from escrow back to the account.
	TransferOut(to common.Address, amount *uint256.Int) error
}

var ErrInsufficientBalance = errors.New("insufficient balance")

// MemLedger is a map-backed Ledger with a single escrow account.
type MemLedger struct {
	balances map[common.Address]*uint256.Int
}

var _ Ledger = (*MemLedger)(nil)

func NewMemLedger() *MemLedger {
	return &MemLedger{balances: make(map[common.Address]*uint256.Int)}
}

func (l *MemLedger) Mint(addr common.Address, amount *uint256.Int) {
	bal := l.balance(addr)
	bal.Add(bal, amount)
}

func (l *MemLedger) BalanceOf(addr common.Address) (*uint256.Int, error) {
	return new(uint256.Int).Set(l.balance(addr)), nil
}

func (l *MemLedger) TransferInto(from common.Address, amount *uint256.Int) error {
	return l.move(from, EscrowAddress, amount)
}

func (l *MemLedger) TransferOut(to common.Address, amount *uint256.Int) error {
	return l.move(EscrowAddress, to, amount)
}

func (l *MemLedger) move(from, to common.Address, amount *uint256.Int) error {
	src := l.balance(from)
	if src.Lt(amount) {
		return ErrInsufficientBalance
	}
	dst := l.balance(to)
	if _, overflow := new(uint256.Int).AddOverflow(dst, amount); overflow {
		return ErrBalanceOverflow
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return nil
}

func (l *MemLedger) balance(addr common.Address) *uint256.Int {
	bal, ok := l.balances[addr]
	if !ok {
		bal = new(uint256.Int)
		l.balances[addr] = bal
	}
	return bal
}
