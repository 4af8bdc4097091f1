// Package gate implements the transfer gate: the single checkpoint run
// before any balance mutation, combining the pause flag with the sender
// allowlist.
//
// Check order is fixed: pause first, unconditionally; then the allowlist,
// and only for genuine peer transfers. Mint and burn settlement (one leg is
// the zero address) bypasses the allowlist: the list restricts who may move
// tokens peer to peer, not whether the bridge can settle.
//
// The gate is mechanism only: it does not consult roles. The composing type
// authorizes the caller before invoking any mutator here.
package gate

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// MaxBatch bounds a single allowlist batch update.
const MaxBatch = 200

var (
	ErrPaused               = errors.New("gate: paused")
	ErrSenderNotAllowlisted = errors.New("gate: sender not allowlisted")
	ErrZeroAddress          = errors.New("gate: zero address")
	ErrEmptyBatch           = errors.New("gate: empty batch")
	ErrBatchTooLarge        = errors.New("gate: batch too large")
)

// Gate holds the pause flag and the allowlist.
type Gate struct {
	paused           bool
	allowlistEnabled bool
	allowlist        map[common.Address]bool
}

// NewGate creates a gate with pausing off and the allowlist disabled.
func NewGate() *Gate {
	return &Gate{allowlist: make(map[common.Address]bool)}
}

// Check runs the pre-mutation checks for a movement from `from` to `to`.
// Mints pass the zero address as `from`, burns as `to`.
func (g *Gate) Check(from, to common.Address) error {
	if g.paused {
		return ErrPaused
	}
	if g.allowlistEnabled && from != (common.Address{}) && to != (common.Address{}) {
		if !g.allowlist[from] {
			return fmt.Errorf("%w: %s", ErrSenderNotAllowlisted, from.Hex())
		}
	}
	return nil
}

// Pause sets the pause flag.
func (g *Gate) Pause() { g.paused = true }

// Unpause clears the pause flag.
func (g *Gate) Unpause() { g.paused = false }

// Paused reports the pause flag.
func (g *Gate) Paused() bool { return g.paused }

// SetAllowlistEnabled switches allowlist enforcement on or off. Membership
// is kept either way; enforcement is skipped entirely while disabled.
func (g *Gate) SetAllowlistEnabled(enabled bool) { g.allowlistEnabled = enabled }

// AllowlistEnabled reports whether the allowlist is enforced.
func (g *Gate) AllowlistEnabled() bool { return g.allowlistEnabled }

// AllowlistSize returns the current number of allowlisted accounts.
func (g *Gate) AllowlistSize() int { return len(g.allowlist) }

// IsAllowlisted reports whether account is a member of the allowlist.
func (g *Gate) IsAllowlisted(account common.Address) bool {
	return g.allowlist[account]
}

// SetAllowlisted adds or removes a single account.
func (g *Gate) SetAllowlisted(account common.Address, allowed bool) error {
	if account == (common.Address{}) {
		return ErrZeroAddress
	}
	g.set(account, allowed)
	return nil
}

// SetAllowlistedBatch applies one membership value to a bounded batch of
// accounts. The batch is validated in full before any entry is applied.
func (g *Gate) SetAllowlistedBatch(accounts []common.Address, allowed bool) error {
	if len(accounts) == 0 {
		return ErrEmptyBatch
	}
	if len(accounts) > MaxBatch {
		return fmt.Errorf("%w: %d entries, limit %d", ErrBatchTooLarge, len(accounts), MaxBatch)
	}
	for _, account := range accounts {
		if account == (common.Address{}) {
			return ErrZeroAddress
		}
	}
	for _, account := range accounts {
		g.set(account, allowed)
	}
	return nil
}

func (g *Gate) set(account common.Address, allowed bool) {
	if allowed {
		g.allowlist[account] = true
		return
	}
	delete(g.allowlist, account)
}
