// Package ledger implements the account bookkeeping core: balances,
// allowances and total supply, with 256-bit unsigned arithmetic.
//
// The ledger is pure mechanism. It knows nothing about roles, pausing or
// allowlists; callers are expected to run their policy checks before
// invoking a mutation. Every mutation validates its inputs before touching
// state, so a returned error means nothing changed.
package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger tracks balances, allowances and total supply.
type Ledger struct {
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	totalSupply *uint256.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		totalSupply: uint256.NewInt(0),
	}
}

// BalanceOf returns a copy of the balance of addr.
func (l *Ledger) BalanceOf(addr common.Address) *uint256.Int {
	if b, ok := l.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return uint256.NewInt(0)
}

// Allowance returns a copy of spender's remaining allowance from owner.
func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	if m, ok := l.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return new(uint256.Int).Set(a)
		}
	}
	return uint256.NewInt(0)
}

// TotalSupply returns a copy of the total supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(l.totalSupply)
}

// Balances returns a snapshot of all non-zero balances.
func (l *Ledger) Balances() map[common.Address]*uint256.Int {
	out := make(map[common.Address]*uint256.Int, len(l.balances))
	for addr, b := range l.balances {
		if !b.IsZero() {
			out[addr] = new(uint256.Int).Set(b)
		}
	}
	return out
}

// Mint credits amount to `to` and grows the total supply. Zero-amount
// operations are valid and leave the ledger untouched.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}
	supply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	l.credit(to, amount)
	l.totalSupply = supply
	return nil
}

// Burn destroys amount from `from`, spending spender's allowance.
// The burner never burns by ownership: even the account holder must hold a
// standing allowance, which keeps bridge settlement and user burns on one
// code path.
func (l *Ledger) Burn(from, spender common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}
	if l.Allowance(from, spender).Lt(amount) {
		return ErrInsufficientAllowance
	}
	if l.BalanceOf(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	l.spend(from, spender, amount)
	l.debit(from, amount)
	l.totalSupply.Sub(l.totalSupply, amount)
	return nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}
	if l.BalanceOf(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	l.debit(from, amount)
	l.credit(to, amount)
	return nil
}

// TransferFrom moves amount from `from` to `to`, spending spender's
// allowance. All checks run before any mutation.
func (l *Ledger) TransferFrom(from, spender, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}
	if l.Allowance(from, spender).Lt(amount) {
		return ErrInsufficientAllowance
	}
	if l.BalanceOf(from).Lt(amount) {
		return ErrInsufficientBalance
	}
	l.spend(from, spender, amount)
	l.debit(from, amount)
	l.credit(to, amount)
	return nil
}

// Approve sets spender's allowance from owner to amount, replacing any
// previous value.
func (l *Ledger) Approve(owner, spender common.Address, amount *uint256.Int) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	m, ok := l.allowances[owner]
	if !ok {
		m = make(map[common.Address]*uint256.Int)
		l.allowances[owner] = m
	}
	if amount.IsZero() {
		delete(m, spender)
		if len(m) == 0 {
			delete(l.allowances, owner)
		}
		return nil
	}
	m[spender] = new(uint256.Int).Set(amount)
	return nil
}

// SpendAllowance consumes amount of spender's allowance from owner.
func (l *Ledger) SpendAllowance(owner, spender common.Address, amount *uint256.Int) error {
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}
	if l.Allowance(owner, spender).Lt(amount) {
		return ErrInsufficientAllowance
	}
	l.spend(owner, spender, amount)
	return nil
}

func (l *Ledger) credit(addr common.Address, amount *uint256.Int) {
	b, ok := l.balances[addr]
	if !ok {
		b = uint256.NewInt(0)
		l.balances[addr] = b
	}
	b.Add(b, amount)
}

func (l *Ledger) debit(addr common.Address, amount *uint256.Int) {
	b := l.balances[addr]
	b.Sub(b, amount)
	if b.IsZero() {
		delete(l.balances, addr)
	}
}

func (l *Ledger) spend(owner, spender common.Address, amount *uint256.Int) {
	a := l.allowances[owner][spender]
	a.Sub(a, amount)
	if a.IsZero() {
		delete(l.allowances[owner], spender)
		if len(l.allowances[owner]) == 0 {
			delete(l.allowances, owner)
		}
	}
}
