package gate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	alice = common.HexToAddress("0x01")
	bob   = common.HexToAddress("0x02")
	zero  = common.Address{}
)

func TestPauseBeatsEverything(t *testing.T) {
	g := NewGate()
	g.SetAllowlistEnabled(true)
	g.Pause()

	// Paused wins even for cases the allowlist would also reject.
	cases := []struct{ from, to common.Address }{
		{alice, bob}, // unlisted peer transfer
		{zero, bob},  // mint
		{alice, zero}, // burn
	}
	for _, tc := range cases {
		if err := g.Check(tc.from, tc.to); !errors.Is(err, ErrPaused) {
			t.Errorf("Check(%s, %s) = %v, want ErrPaused", tc.from.Hex(), tc.to.Hex(), err)
		}
	}

	g.Unpause()
	if err := g.Check(zero, bob); err != nil {
		t.Errorf("mint after unpause: %v", err)
	}
}

func TestAllowlistGatesPeerTransfersOnly(t *testing.T) {
	g := NewGate()
	g.SetAllowlistEnabled(true)

	// Peer transfer from an unlisted sender fails regardless of recipient.
	if err := g.Check(alice, bob); !errors.Is(err, ErrSenderNotAllowlisted) {
		t.Errorf("got %v, want ErrSenderNotAllowlisted", err)
	}
	if err := g.SetAllowlisted(bob, true); err != nil {
		t.Fatalf("set allowlisted: %v", err)
	}
	if err := g.Check(alice, bob); !errors.Is(err, ErrSenderNotAllowlisted) {
		t.Errorf("recipient membership must not matter: got %v", err)
	}

	// Mint and burn bypass membership entirely.
	if err := g.Check(zero, alice); err != nil {
		t.Errorf("mint to unlisted account: %v", err)
	}
	if err := g.Check(alice, zero); err != nil {
		t.Errorf("burn from unlisted account: %v", err)
	}

	// Listing the sender opens the path.
	if err := g.SetAllowlisted(alice, true); err != nil {
		t.Fatalf("set allowlisted: %v", err)
	}
	if err := g.Check(alice, bob); err != nil {
		t.Errorf("listed sender rejected: %v", err)
	}
}

func TestAllowlistDisabledSkipsEnforcement(t *testing.T) {
	g := NewGate()
	if err := g.Check(alice, bob); err != nil {
		t.Errorf("disabled allowlist should not gate: %v", err)
	}

	// Membership survives the switch flapping.
	if err := g.SetAllowlisted(alice, true); err != nil {
		t.Fatalf("set allowlisted: %v", err)
	}
	g.SetAllowlistEnabled(true)
	g.SetAllowlistEnabled(false)
	g.SetAllowlistEnabled(true)
	if !g.IsAllowlisted(alice) {
		t.Error("membership lost across enable/disable")
	}
}

func TestSetAllowlistedZeroAddress(t *testing.T) {
	g := NewGate()
	if err := g.SetAllowlisted(zero, true); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("got %v, want ErrZeroAddress", err)
	}
}

func TestBatchBounds(t *testing.T) {
	g := NewGate()

	if err := g.SetAllowlistedBatch(nil, true); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch: got %v, want ErrEmptyBatch", err)
	}

	over := makeAccounts(MaxBatch + 1)
	if err := g.SetAllowlistedBatch(over, true); !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("oversized batch: got %v, want ErrBatchTooLarge", err)
	}
	if g.AllowlistSize() != 0 {
		t.Errorf("oversized batch applied %d entries", g.AllowlistSize())
	}

	full := makeAccounts(MaxBatch)
	if err := g.SetAllowlistedBatch(full, true); err != nil {
		t.Fatalf("full batch failed: %v", err)
	}
	if g.AllowlistSize() != MaxBatch {
		t.Errorf("allowlist size = %d, want %d", g.AllowlistSize(), MaxBatch)
	}

	if err := g.SetAllowlistedBatch(full[:10], false); err != nil {
		t.Fatalf("removal batch failed: %v", err)
	}
	if g.AllowlistSize() != MaxBatch-10 {
		t.Errorf("allowlist size = %d, want %d", g.AllowlistSize(), MaxBatch-10)
	}
}

func TestBatchRejectsZeroMemberAtomically(t *testing.T) {
	g := NewGate()
	batch := []common.Address{alice, zero, bob}
	if err := g.SetAllowlistedBatch(batch, true); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("got %v, want ErrZeroAddress", err)
	}
	if g.AllowlistSize() != 0 {
		t.Errorf("batch applied %d entries before failing", g.AllowlistSize())
	}
}

func makeAccounts(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.HexToAddress(fmt.Sprintf("0x%040x", i+1))
	}
	return out
}
