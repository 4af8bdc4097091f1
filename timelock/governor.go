// Package timelock implements the two-phase governance scheduler: operations
// are scheduled with a minimum delay, become ready once the clock passes
// their eta, and are executed (or cancelled) explicitly.
//
// The delay gives token holders a guaranteed window to react before a code
// change takes effect. Salts let the same logical call be rescheduled under
// a fresh id after cancellation; predecessors impose execution ordering
// between dependent operations.
package timelock

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokengate-xyz/go-tokengate/eventlog"
)

var (
	ErrUnauthorized           = errors.New("timelock: caller lacks capability")
	ErrInvalidDelay           = errors.New("timelock: delay below minimum")
	ErrAlreadyScheduled       = errors.New("timelock: operation already scheduled")
	ErrNotReady               = errors.New("timelock: operation is not ready")
	ErrPredecessorNotExecuted = errors.New("timelock: predecessor not executed")
	ErrAlreadyExecuted        = errors.New("timelock: operation already executed")
	ErrNotCancellable         = errors.New("timelock: operation cannot be cancelled")
	ErrUnknownTarget          = errors.New("timelock: no handler for target")
)

// OperationState is the lifecycle state of one scheduled operation.
// Ready is derived from the clock, never stored; Executed and Cancelled are
// terminal.
type OperationState int

const (
	StateUnset OperationState = iota
	StateScheduled
	StateReady
	StateExecuted
	StateCancelled
)

func (s OperationState) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateScheduled:
		return "scheduled"
	case StateReady:
		return "ready"
	case StateExecuted:
		return "executed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Call describes the operation to perform: a payload dispatched to a target,
// scoped by a salt and an optional predecessor.
type Call struct {
	Target      common.Address
	Payload     []byte
	Predecessor common.Hash
	Salt        common.Hash
}

// ID derives the deterministic operation id. The payload is hashed first so
// the preimage has fixed width.
func (c Call) ID() common.Hash {
	return crypto.Keccak256Hash(
		c.Target.Bytes(),
		crypto.Keccak256(c.Payload),
		c.Predecessor.Bytes(),
		c.Salt.Bytes(),
	)
}

// Dispatcher routes an executed payload to its target.
type Dispatcher interface {
	Dispatch(target common.Address, payload []byte) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(target common.Address, payload []byte) error

func (f DispatcherFunc) Dispatch(target common.Address, payload []byte) error {
	return f(target, payload)
}

// Config configures a Governor.
type Config struct {
	// MinDelay is the smallest accepted scheduling delay.
	MinDelay time.Duration

	// Proposers may schedule, Executors execute, Cancellers cancel.
	Proposers  []common.Address
	Executors  []common.Address
	Cancellers []common.Address

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time

	// Journal receives operation change records. Optional.
	Journal eventlog.Recorder
}

type operation struct {
	eta   time.Time
	state OperationState // StateScheduled, StateExecuted or StateCancelled
}

// Governor is the timelock scheduler.
type Governor struct {
	minDelay   time.Duration
	proposers  map[common.Address]bool
	executors  map[common.Address]bool
	cancellers map[common.Address]bool
	dispatcher Dispatcher
	now        func() time.Time
	journal    eventlog.Recorder
	ops        map[common.Hash]*operation
}

// NewGovernor creates a governor dispatching executed calls through d.
func NewGovernor(cfg Config, d Dispatcher) (*Governor, error) {
	if d == nil {
		return nil, errors.New("timelock: nil dispatcher")
	}
	if cfg.MinDelay < 0 {
		return nil, errors.New("timelock: negative minimum delay")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Governor{
		minDelay:   cfg.MinDelay,
		proposers:  addressSet(cfg.Proposers),
		executors:  addressSet(cfg.Executors),
		cancellers: addressSet(cfg.Cancellers),
		dispatcher: d,
		now:        now,
		journal:    cfg.Journal,
		ops:        make(map[common.Hash]*operation),
	}, nil
}

// MinDelay returns the minimum scheduling delay.
func (g *Governor) MinDelay() time.Duration { return g.minDelay }

// State returns the current state of the operation with the given id.
func (g *Governor) State(id common.Hash) OperationState {
	op, ok := g.ops[id]
	if !ok {
		return StateUnset
	}
	if op.state == StateScheduled && !g.now().Before(op.eta) {
		return StateReady
	}
	return op.state
}

// Eta returns the earliest execution time of a scheduled operation.
func (g *Governor) Eta(id common.Hash) (time.Time, bool) {
	op, ok := g.ops[id]
	if !ok {
		return time.Time{}, false
	}
	return op.eta, true
}

// Schedule registers a call for execution no earlier than now + delay and
// returns its operation id.
func (g *Governor) Schedule(caller common.Address, call Call, delay time.Duration) (common.Hash, error) {
	if !g.proposers[caller] {
		return common.Hash{}, fmt.Errorf("%w: %s is not a proposer", ErrUnauthorized, caller.Hex())
	}
	if delay < g.minDelay {
		return common.Hash{}, fmt.Errorf("%w: %s < %s", ErrInvalidDelay, delay, g.minDelay)
	}
	id := call.ID()
	if g.State(id) != StateUnset {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrAlreadyScheduled, id.Hex())
	}

	eta := g.now().Add(delay)
	g.ops[id] = &operation{eta: eta, state: StateScheduled}
	g.record(eventlog.KindOperationScheduled, eventlog.OperationEvent{
		OperationID: id.Hex(),
		Target:      call.Target.Hex(),
		Predecessor: call.Predecessor.Hex(),
		Salt:        call.Salt.Hex(),
		Eta:         eta,
	})
	return id, nil
}

// Execute dispatches a ready operation and marks it executed. Re-invoking
// with identical arguments after success fails with ErrAlreadyExecuted and
// has no further effect.
func (g *Governor) Execute(caller common.Address, call Call) error {
	if !g.executors[caller] {
		return fmt.Errorf("%w: %s is not an executor", ErrUnauthorized, caller.Hex())
	}
	id := call.ID()
	switch st := g.State(id); st {
	case StateReady:
	case StateExecuted:
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, id.Hex())
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotReady, id.Hex(), st)
	}
	if call.Predecessor != (common.Hash{}) && g.State(call.Predecessor) != StateExecuted {
		return fmt.Errorf("%w: %s", ErrPredecessorNotExecuted, call.Predecessor.Hex())
	}

	if err := g.dispatcher.Dispatch(call.Target, call.Payload); err != nil {
		return fmt.Errorf("timelock: dispatch %s: %w", id.Hex(), err)
	}
	g.ops[id].state = StateExecuted
	g.record(eventlog.KindOperationExecuted, eventlog.OperationEvent{
		OperationID: id.Hex(),
		Target:      call.Target.Hex(),
	})
	return nil
}

// Cancel moves a scheduled or ready operation to the cancelled terminal
// state.
func (g *Governor) Cancel(caller common.Address, id common.Hash) error {
	if !g.cancellers[caller] {
		return fmt.Errorf("%w: %s is not a canceller", ErrUnauthorized, caller.Hex())
	}
	switch st := g.State(id); st {
	case StateScheduled, StateReady:
	default:
		return fmt.Errorf("%w: %s is %s", ErrNotCancellable, id.Hex(), st)
	}
	g.ops[id].state = StateCancelled
	g.record(eventlog.KindOperationCancelled, eventlog.OperationEvent{OperationID: id.Hex()})
	return nil
}

func (g *Governor) record(kind eventlog.Kind, payload any) {
	if g.journal == nil {
		return
	}
	// Journal failures do not unwind governance state.
	_ = g.journal.Append(kind, payload)
}

func addressSet(addrs []common.Address) map[common.Address]bool {
	set := make(map[common.Address]bool, len(addrs))
	for _, a := range addrs {
		set[a] = true
	}
	return set
}
