package ledger

import "errors"

var (
	ErrZeroAddress           = errors.New("ledger: zero address")
	ErrInsufficientBalance   = errors.New("ledger: insufficient balance")
	ErrInsufficientAllowance = errors.New("ledger: insufficient allowance")
	ErrSupplyOverflow        = errors.New("ledger: total supply overflow")
)
