// Package token composes the ledger, access registry, transfer gate and
// upgrade controller into the single bridged-token type external callers
// interact with.
//
// The capability modules stay independent; Token wires them by explicit
// delegation and fixes the call order (gate checks run before any ledger
// mutation). A mutex serializes the entry points, and every check runs
// before the first mutation, so a rejected operation has no observable
// effect.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/tokengate-xyz/go-tokengate/access"
	"github.com/tokengate-xyz/go-tokengate/eventlog"
	"github.com/tokengate-xyz/go-tokengate/gate"
	"github.com/tokengate-xyz/go-tokengate/ledger"
	"github.com/tokengate-xyz/go-tokengate/metrics"
	"github.com/tokengate-xyz/go-tokengate/upgrade"
)

var (
	ErrNotInitialized     = errors.New("token: not initialized")
	ErrAlreadyInitialized = errors.New("token: already initialized")
	ErrZeroAddress        = errors.New("token: zero address")
)

// Config configures token initialization.
type Config struct {
	Name     string
	Symbol   string
	Decimals uint8

	// Admin receives the super-admin role and, as a fallback against
	// operational key loss, every operational role.
	Admin common.Address

	// Bridge is the single identity allowed to mint and burn.
	Bridge common.Address

	// Additional operational role holders.
	Pausers         []common.Address
	AllowlistAdmins []common.Address
	Upgraders       []common.Address

	// Journal receives change records. Defaults to an in-memory journal.
	Journal eventlog.Journal
}

// Token is the composed bridged token.
type Token struct {
	mu sync.Mutex

	name     string
	symbol   string
	decimals uint8
	bridge   common.Address

	ledger   *ledger.Ledger
	registry *access.Registry
	gate     *gate.Gate
	upgrades *upgrade.Controller
	journal  eventlog.Journal

	initialized bool
}

// New returns a constructed but uninitialized token. Every entry point
// fails with ErrNotInitialized until Initialize has run.
func New() *Token {
	return &Token{}
}

// Initialize runs the one-time setup: seeds the role registry, pins the
// bridge capability and activates the genesis implementation. A second call
// fails with ErrAlreadyInitialized.
func (t *Token) Initialize(cfg Config) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return ErrAlreadyInitialized
	}
	if cfg.Admin == (common.Address{}) {
		return fmt.Errorf("%w: admin", ErrZeroAddress)
	}
	if cfg.Bridge == (common.Address{}) {
		return fmt.Errorf("%w: bridge", ErrZeroAddress)
	}

	registry := access.NewRegistry()
	registry.Bootstrap(access.RoleAdmin, cfg.Admin)
	for _, seed := range []struct {
		role    access.Role
		holders []common.Address
	}{
		{access.RolePauser, cfg.Pausers},
		{access.RoleAllowlistAdmin, cfg.AllowlistAdmins},
		{access.RoleUpgrader, cfg.Upgraders},
	} {
		registry.Bootstrap(seed.role, cfg.Admin)
		for _, holder := range seed.holders {
			registry.Bootstrap(seed.role, holder)
		}
	}

	t.name = cfg.Name
	t.symbol = cfg.Symbol
	t.decimals = cfg.Decimals
	t.bridge = cfg.Bridge
	t.registry = registry
	t.ledger = ledger.NewLedger()
	t.gate = gate.NewGate()

	controller, err := upgrade.NewController(registry, &implV1{})
	if err != nil {
		return err
	}
	if err := controller.Register(&implV2{tok: t}); err != nil {
		return err
	}
	t.upgrades = controller

	t.journal = cfg.Journal
	if t.journal == nil {
		t.journal = eventlog.NewMemoryJournal()
	}

	t.initialized = true
	return nil
}

// Mint credits freshly bridged value to `to`. Bridge capability only; the
// allowlist never gates settlement, only the pause flag does.
func (t *Token) Mint(caller, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if caller != t.bridge {
		return t.reject(&access.Unauthorized{Role: access.RoleBridge, Account: caller})
	}
	if err := t.gate.Check(common.Address{}, to); err != nil {
		return t.reject(err)
	}
	if err := t.ledger.Mint(to, amount); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindTransfer, eventlog.TransferEvent{
		From:   common.Address{}.Hex(),
		To:     to.Hex(),
		Amount: amount.Dec(),
	})
	metrics.OperationsTotal.WithLabelValues("mint").Inc()
	return nil
}

// Burn destroys bridged-out value from `from`, spending the bridge's
// standing allowance. Bridge capability only.
func (t *Token) Burn(caller, from common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if caller != t.bridge {
		return t.reject(&access.Unauthorized{Role: access.RoleBridge, Account: caller})
	}
	if err := t.gate.Check(from, common.Address{}); err != nil {
		return t.reject(err)
	}
	if err := t.ledger.Burn(from, caller, amount); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindTransfer, eventlog.TransferEvent{
		From:   from.Hex(),
		To:     common.Address{}.Hex(),
		Amount: amount.Dec(),
	})
	metrics.OperationsTotal.WithLabelValues("burn").Inc()
	return nil
}

// Transfer moves tokens from the caller to `to`.
func (t *Token) Transfer(caller, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.gate.Check(caller, to); err != nil {
		return t.reject(err)
	}
	if err := t.ledger.Transfer(caller, to, amount); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindTransfer, eventlog.TransferEvent{
		From:   caller.Hex(),
		To:     to.Hex(),
		Amount: amount.Dec(),
	})
	metrics.OperationsTotal.WithLabelValues("transfer").Inc()
	return nil
}

// TransferFrom moves tokens from `from` to `to`, spending the caller's
// allowance.
func (t *Token) TransferFrom(caller, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.gate.Check(from, to); err != nil {
		return t.reject(err)
	}
	if err := t.ledger.TransferFrom(from, caller, to, amount); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindTransfer, eventlog.TransferEvent{
		From:   from.Hex(),
		To:     to.Hex(),
		Amount: amount.Dec(),
	})
	metrics.OperationsTotal.WithLabelValues("transfer_from").Inc()
	return nil
}

// Approve sets the caller's allowance for spender. Approvals are not
// balance-changing, so the gate does not apply.
func (t *Token) Approve(caller, spender common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.ledger.Approve(caller, spender, amount); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindApproval, eventlog.ApprovalEvent{
		Owner:   caller.Hex(),
		Spender: spender.Hex(),
		Amount:  amount.Dec(),
	})
	metrics.OperationsTotal.WithLabelValues("approve").Inc()
	return nil
}

// GrantRole adds account to role; the caller must hold role's admin role.
func (t *Token) GrantRole(caller common.Address, role access.Role, account common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.GrantRole(caller, role, account); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindRoleGranted, eventlog.RoleEvent{
		Role:    role.Hex(),
		Account: account.Hex(),
		Sender:  caller.Hex(),
	})
	metrics.OperationsTotal.WithLabelValues("grant_role").Inc()
	return nil
}

// RevokeRole removes account from role; the caller must hold role's admin
// role.
func (t *Token) RevokeRole(caller common.Address, role access.Role, account common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.RevokeRole(caller, role, account); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindRoleRevoked, eventlog.RoleEvent{
		Role:    role.Hex(),
		Account: account.Hex(),
		Sender:  caller.Hex(),
	})
	metrics.OperationsTotal.WithLabelValues("revoke_role").Inc()
	return nil
}

// HasRole reports whether account holds role.
func (t *Token) HasRole(role access.Role, account common.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return false
	}
	return t.registry.HasRole(role, account)
}

// Pause halts every balance-changing operation. Pauser role only.
func (t *Token) Pause(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.CheckRole(access.RolePauser, caller); err != nil {
		return t.reject(err)
	}
	t.gate.Pause()
	t.emit(eventlog.KindPaused, eventlog.PauseEvent{Sender: caller.Hex()})
	metrics.OperationsTotal.WithLabelValues("pause").Inc()
	metrics.PausedState.Set(1)
	return nil
}

// Unpause resumes balance-changing operations. Pauser role only.
func (t *Token) Unpause(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.CheckRole(access.RolePauser, caller); err != nil {
		return t.reject(err)
	}
	t.gate.Unpause()
	t.emit(eventlog.KindUnpaused, eventlog.PauseEvent{Sender: caller.Hex()})
	metrics.OperationsTotal.WithLabelValues("unpause").Inc()
	metrics.PausedState.Set(0)
	return nil
}

// SetAllowlisted adds or removes one account. Allowlist-admin role only.
func (t *Token) SetAllowlisted(caller, account common.Address, allowed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.CheckRole(access.RoleAllowlistAdmin, caller); err != nil {
		return t.reject(err)
	}
	if err := t.gate.SetAllowlisted(account, allowed); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindAllowlistUpdated, eventlog.AllowlistEvent{
		Accounts: []string{account.Hex()},
		Allowed:  allowed,
	})
	metrics.OperationsTotal.WithLabelValues("set_allowlisted").Inc()
	metrics.AllowlistSize.Set(float64(t.gate.AllowlistSize()))
	return nil
}

// SetAllowlistedBatch applies one membership value to a bounded batch.
// Allowlist-admin role only.
func (t *Token) SetAllowlistedBatch(caller common.Address, accounts []common.Address, allowed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.CheckRole(access.RoleAllowlistAdmin, caller); err != nil {
		return t.reject(err)
	}
	if err := t.gate.SetAllowlistedBatch(accounts, allowed); err != nil {
		return t.reject(err)
	}
	hexes := make([]string, len(accounts))
	for i, account := range accounts {
		hexes[i] = account.Hex()
	}
	t.emit(eventlog.KindAllowlistUpdated, eventlog.AllowlistEvent{
		Accounts: hexes,
		Allowed:  allowed,
	})
	metrics.OperationsTotal.WithLabelValues("set_allowlisted_batch").Inc()
	metrics.AllowlistSize.Set(float64(t.gate.AllowlistSize()))
	return nil
}

// SetAllowlistEnabled switches allowlist enforcement. Allowlist-admin role
// only.
func (t *Token) SetAllowlistEnabled(caller common.Address, enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.CheckRole(access.RoleAllowlistAdmin, caller); err != nil {
		return t.reject(err)
	}
	t.gate.SetAllowlistEnabled(enabled)
	t.emit(eventlog.KindAllowlistEnabledSet, eventlog.AllowlistEnabledEvent{Enabled: enabled})
	metrics.OperationsTotal.WithLabelValues("set_allowlist_enabled").Inc()
	return nil
}

// IsAllowlisted reports allowlist membership.
func (t *Token) IsAllowlisted(account common.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized && t.gate.IsAllowlisted(account)
}

// SetBridge re-points the bridge capability. Admin role only.
func (t *Token) SetBridge(caller, bridge common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	if err := t.registry.CheckRole(access.RoleAdmin, caller); err != nil {
		return t.reject(err)
	}
	if bridge == (common.Address{}) {
		return t.reject(fmt.Errorf("%w: bridge", ErrZeroAddress))
	}
	previous := t.bridge
	t.bridge = bridge
	t.emit(eventlog.KindBridgeUpdated, eventlog.BridgeEvent{
		Previous: previous.Hex(),
		Current:  bridge.Hex(),
	})
	metrics.OperationsTotal.WithLabelValues("set_bridge").Inc()
	return nil
}

// UpgradeTo swaps the active implementation. Upgrader role only.
func (t *Token) UpgradeTo(caller common.Address, id common.Hash, initData []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return err
	}
	previous := t.upgrades.Active()
	if err := t.upgrades.UpgradeTo(caller, id, initData); err != nil {
		return t.reject(err)
	}
	t.emit(eventlog.KindUpgraded, eventlog.UpgradeEvent{
		Previous: previous.Hex(),
		Current:  id.Hex(),
	})
	metrics.OperationsTotal.WithLabelValues("upgrade_to").Inc()
	metrics.UpgradesTotal.Inc()
	return nil
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return uint256.NewInt(0)
	}
	return t.ledger.BalanceOf(addr)
}

// Allowance returns spender's remaining allowance from owner.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return uint256.NewInt(0)
	}
	return t.ledger.Allowance(owner, spender)
}

// TotalSupply returns the total supply.
func (t *Token) TotalSupply() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return uint256.NewInt(0)
	}
	return t.ledger.TotalSupply()
}

// Balances returns a snapshot of all non-zero balances.
func (t *Token) Balances() map[common.Address]*uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return nil
	}
	return t.ledger.Balances()
}

// Paused reports the pause flag.
func (t *Token) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized && t.gate.Paused()
}

// AllowlistEnabled reports whether the allowlist is enforced.
func (t *Token) AllowlistEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initialized && t.gate.AllowlistEnabled()
}

// ActiveVersion returns the active implementation id.
func (t *Token) ActiveVersion() common.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return common.Hash{}
	}
	return t.upgrades.Active()
}

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the token decimals.
func (t *Token) Decimals() uint8 { return t.decimals }

// Bridge returns the current bridge identity.
func (t *Token) Bridge() common.Address {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bridge
}

// Journal returns the configured journal.
func (t *Token) Journal() eventlog.Journal { return t.journal }

func (t *Token) ready() error {
	if !t.initialized {
		return ErrNotInitialized
	}
	return nil
}

// emit appends a change record after the state change committed. Journal
// failures never unwind ledger state.
func (t *Token) emit(kind eventlog.Kind, payload any) {
	_ = t.journal.Append(kind, payload)
}

func (t *Token) reject(err error) error {
	metrics.RejectionsTotal.WithLabelValues(reason(err)).Inc()
	return err
}

// reason buckets an error into its taxonomy kind for metrics labels.
func reason(err error) string {
	switch {
	case errors.Is(err, gate.ErrPaused):
		return "paused"
	case errors.Is(err, gate.ErrSenderNotAllowlisted):
		return "sender_not_allowlisted"
	case errors.Is(err, gate.ErrEmptyBatch):
		return "empty_batch"
	case errors.Is(err, gate.ErrBatchTooLarge):
		return "batch_too_large"
	case errors.Is(err, access.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return "insufficient_allowance"
	case errors.Is(err, ledger.ErrZeroAddress),
		errors.Is(err, gate.ErrZeroAddress),
		errors.Is(err, ErrZeroAddress):
		return "zero_address"
	case errors.Is(err, upgrade.ErrNotUpgradeable):
		return "not_upgradeable"
	case errors.Is(err, upgrade.ErrAlreadyInitialized):
		return "already_initialized"
	default:
		return "other"
	}
}
