package timelock

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	proposer  = common.HexToAddress("0x01")
	executor  = common.HexToAddress("0x02")
	canceller = common.HexToAddress("0x03")
	outsider  = common.HexToAddress("0xee")
	target    = common.HexToAddress("0xd0")
)

// testClock is a manually advanced clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// recordingDispatcher records dispatched payloads and can be set to fail.
type recordingDispatcher struct {
	calls []string
	err   error
}

func (d *recordingDispatcher) Dispatch(_ common.Address, payload []byte) error {
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, string(payload))
	return nil
}

func newTestGovernor(t *testing.T, minDelay time.Duration) (*Governor, *testClock, *recordingDispatcher) {
	t.Helper()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	disp := &recordingDispatcher{}
	g, err := NewGovernor(Config{
		MinDelay:   minDelay,
		Proposers:  []common.Address{proposer},
		Executors:  []common.Address{executor},
		Cancellers: []common.Address{canceller},
		Now:        clock.Now,
	}, disp)
	if err != nil {
		t.Fatalf("new governor: %v", err)
	}
	return g, clock, disp
}

func upgradeCall(salt byte) Call {
	return Call{
		Target:  target,
		Payload: []byte(`{"op":"upgradeTo"}`),
		Salt:    common.Hash{31: salt},
	}
}

func TestOperationIDDeterminism(t *testing.T) {
	a := upgradeCall(1)
	b := upgradeCall(1)
	if a.ID() != b.ID() {
		t.Error("identical calls produced different ids")
	}
	if a.ID() == upgradeCall(2).ID() {
		t.Error("different salts produced the same id")
	}
	withPred := upgradeCall(1)
	withPred.Predecessor = common.Hash{1}
	if a.ID() == withPred.ID() {
		t.Error("different predecessors produced the same id")
	}
}

func TestScheduleExecuteLifecycle(t *testing.T) {
	const delay = 172800 * time.Second
	g, clock, disp := newTestGovernor(t, delay)
	call := upgradeCall(1)

	id, err := g.Schedule(proposer, call, delay)
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if got := g.State(id); got != StateScheduled {
		t.Errorf("state = %s, want scheduled", got)
	}

	// Immediate execution is rejected.
	if err := g.Execute(executor, call); !errors.Is(err, ErrNotReady) {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
	if len(disp.calls) != 0 {
		t.Fatal("dispatcher ran before eta")
	}

	// One second short of the eta is still not ready.
	clock.Advance(delay - time.Second)
	if got := g.State(id); got != StateScheduled {
		t.Errorf("state = %s just before eta, want scheduled", got)
	}

	clock.Advance(time.Second)
	if got := g.State(id); got != StateReady {
		t.Errorf("state = %s at eta, want ready", got)
	}
	if err := g.Execute(executor, call); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if len(disp.calls) != 1 {
		t.Fatalf("dispatcher ran %d times, want 1", len(disp.calls))
	}
	if got := g.State(id); got != StateExecuted {
		t.Errorf("state = %s, want executed", got)
	}
}

func TestExecuteIsTerminal(t *testing.T) {
	g, clock, disp := newTestGovernor(t, time.Hour)
	call := upgradeCall(1)

	if _, err := g.Schedule(proposer, call, time.Hour); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	clock.Advance(time.Hour)
	if err := g.Execute(executor, call); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if err := g.Execute(executor, call); !errors.Is(err, ErrAlreadyExecuted) {
		t.Fatalf("replay: got %v, want ErrAlreadyExecuted", err)
	}
	if len(disp.calls) != 1 {
		t.Errorf("replay produced a side effect: %d dispatches", len(disp.calls))
	}
}

func TestScheduleValidation(t *testing.T) {
	g, _, _ := newTestGovernor(t, time.Hour)
	call := upgradeCall(1)

	if _, err := g.Schedule(outsider, call, time.Hour); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("outsider schedule: got %v, want ErrUnauthorized", err)
	}
	if _, err := g.Schedule(proposer, call, time.Minute); !errors.Is(err, ErrInvalidDelay) {
		t.Errorf("short delay: got %v, want ErrInvalidDelay", err)
	}

	if _, err := g.Schedule(proposer, call, time.Hour); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if _, err := g.Schedule(proposer, call, 2*time.Hour); !errors.Is(err, ErrAlreadyScheduled) {
		t.Errorf("duplicate: got %v, want ErrAlreadyScheduled", err)
	}

	// A fresh salt reschedules the same logical call under a new id.
	fresh := upgradeCall(2)
	if _, err := g.Schedule(proposer, fresh, time.Hour); err != nil {
		t.Errorf("fresh salt rejected: %v", err)
	}
}

func TestPredecessorOrdering(t *testing.T) {
	g, clock, _ := newTestGovernor(t, time.Hour)

	first := upgradeCall(1)
	firstID, err := g.Schedule(proposer, first, time.Hour)
	if err != nil {
		t.Fatalf("schedule first: %v", err)
	}

	second := upgradeCall(2)
	second.Predecessor = firstID
	if _, err := g.Schedule(proposer, second, time.Hour); err != nil {
		t.Fatalf("schedule second: %v", err)
	}

	clock.Advance(2 * time.Hour)

	// Both ready, but the second is blocked on the first.
	if err := g.Execute(executor, second); !errors.Is(err, ErrPredecessorNotExecuted) {
		t.Fatalf("got %v, want ErrPredecessorNotExecuted", err)
	}
	if err := g.Execute(executor, first); err != nil {
		t.Fatalf("execute first: %v", err)
	}
	if err := g.Execute(executor, second); err != nil {
		t.Fatalf("execute second: %v", err)
	}
}

func TestCancel(t *testing.T) {
	g, clock, disp := newTestGovernor(t, time.Hour)
	call := upgradeCall(1)

	id, err := g.Schedule(proposer, call, time.Hour)
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	if err := g.Cancel(outsider, id); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("outsider cancel: got %v, want ErrUnauthorized", err)
	}
	if err := g.Cancel(canceller, id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if got := g.State(id); got != StateCancelled {
		t.Errorf("state = %s, want cancelled", got)
	}

	// Cancelled is terminal: neither execution nor re-cancellation works,
	// and time passing does not resurrect the operation.
	clock.Advance(2 * time.Hour)
	if err := g.Execute(executor, call); !errors.Is(err, ErrNotReady) {
		t.Errorf("execute cancelled: got %v, want ErrNotReady", err)
	}
	if err := g.Cancel(canceller, id); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("re-cancel: got %v, want ErrNotCancellable", err)
	}
	if len(disp.calls) != 0 {
		t.Error("cancelled operation dispatched")
	}

	// The same logical call can be rescheduled under a fresh salt.
	if _, err := g.Schedule(proposer, upgradeCall(9), time.Hour); err != nil {
		t.Errorf("reschedule after cancel: %v", err)
	}
}

func TestCancelExecutedFails(t *testing.T) {
	g, clock, _ := newTestGovernor(t, time.Hour)
	call := upgradeCall(1)
	id, err := g.Schedule(proposer, call, time.Hour)
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	clock.Advance(time.Hour)
	if err := g.Execute(executor, call); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if err := g.Cancel(canceller, id); !errors.Is(err, ErrNotCancellable) {
		t.Errorf("got %v, want ErrNotCancellable", err)
	}
}

func TestDispatchFailureKeepsOperationPending(t *testing.T) {
	g, clock, disp := newTestGovernor(t, time.Hour)
	call := upgradeCall(1)
	id, err := g.Schedule(proposer, call, time.Hour)
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	clock.Advance(time.Hour)

	disp.err = errors.New("handler exploded")
	if err := g.Execute(executor, call); err == nil {
		t.Fatal("expected dispatch error")
	}
	if got := g.State(id); got != StateReady {
		t.Errorf("state = %s after failed dispatch, want ready", got)
	}

	disp.err = nil
	if err := g.Execute(executor, call); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestExecutorCapability(t *testing.T) {
	g, clock, _ := newTestGovernor(t, time.Hour)
	call := upgradeCall(1)
	if _, err := g.Schedule(proposer, call, time.Hour); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	clock.Advance(time.Hour)
	if err := g.Execute(outsider, call); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestRouter(t *testing.T) {
	router := NewRouter()
	var got []byte
	router.Register(target, func(payload []byte) error {
		got = payload
		return nil
	})

	if err := router.Dispatch(target, []byte("hello")); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("payload = %q, want hello", got)
	}

	if err := router.Dispatch(outsider, nil); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("got %v, want ErrUnknownTarget", err)
	}
}
