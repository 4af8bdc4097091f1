package ledger

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	alice  = common.HexToAddress("0x01")
	bob    = common.HexToAddress("0x02")
	carol  = common.HexToAddress("0x03")
	bridge = common.HexToAddress("0xb1")
)

func amt(n uint64) *uint256.Int { return uint256.NewInt(n) }

func checkConservation(t *testing.T, l *Ledger) {
	t.Helper()
	sum := uint256.NewInt(0)
	for _, b := range l.Balances() {
		sum.Add(sum, b)
	}
	if sum.Cmp(l.TotalSupply()) != 0 {
		t.Fatalf("conservation violated: sum %s, supply %s", sum.Dec(), l.TotalSupply().Dec())
	}
}

func TestMint(t *testing.T) {
	l := NewLedger()

	if err := l.Mint(alice, amt(1000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if got := l.BalanceOf(alice); got.Cmp(amt(1000)) != 0 {
		t.Errorf("balance = %s, want 1000", got.Dec())
	}
	if got := l.TotalSupply(); got.Cmp(amt(1000)) != 0 {
		t.Errorf("supply = %s, want 1000", got.Dec())
	}
	checkConservation(t, l)

	if err := l.Mint(common.Address{}, amt(1)); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("mint to zero address: got %v, want ErrZeroAddress", err)
	}
}

func TestMintSupplyOverflow(t *testing.T) {
	l := NewLedger()
	max := new(uint256.Int).SetAllOne()

	if err := l.Mint(alice, max); err != nil {
		t.Fatalf("mint max failed: %v", err)
	}
	if err := l.Mint(bob, amt(1)); !errors.Is(err, ErrSupplyOverflow) {
		t.Errorf("got %v, want ErrSupplyOverflow", err)
	}
	// Failed mint must not leave a partial credit.
	if got := l.BalanceOf(bob); !got.IsZero() {
		t.Errorf("bob balance = %s after failed mint, want 0", got.Dec())
	}
	checkConservation(t, l)
}

func TestTransfer(t *testing.T) {
	l := NewLedger()
	if err := l.Mint(alice, amt(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := l.Transfer(alice, bob, amt(30)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := l.BalanceOf(alice); got.Cmp(amt(70)) != 0 {
		t.Errorf("alice = %s, want 70", got.Dec())
	}
	if got := l.BalanceOf(bob); got.Cmp(amt(30)) != 0 {
		t.Errorf("bob = %s, want 30", got.Dec())
	}
	checkConservation(t, l)

	if err := l.Transfer(alice, bob, amt(71)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}
	if err := l.Transfer(alice, common.Address{}, amt(1)); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("got %v, want ErrZeroAddress", err)
	}
}

func TestApproveAndSpend(t *testing.T) {
	l := NewLedger()
	if err := l.Mint(alice, amt(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	if err := l.Approve(alice, bob, amt(40)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got := l.Allowance(alice, bob); got.Cmp(amt(40)) != 0 {
		t.Errorf("allowance = %s, want 40", got.Dec())
	}

	if err := l.SpendAllowance(alice, bob, amt(15)); err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if got := l.Allowance(alice, bob); got.Cmp(amt(25)) != 0 {
		t.Errorf("allowance = %s, want 25", got.Dec())
	}

	if err := l.SpendAllowance(alice, bob, amt(26)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("got %v, want ErrInsufficientAllowance", err)
	}

	// Re-approval replaces, approval of zero clears.
	if err := l.Approve(alice, bob, amt(5)); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	if got := l.Allowance(alice, bob); got.Cmp(amt(5)) != 0 {
		t.Errorf("allowance = %s, want 5", got.Dec())
	}
	if err := l.Approve(alice, bob, amt(0)); err != nil {
		t.Fatalf("clear approve failed: %v", err)
	}
	if got := l.Allowance(alice, bob); !got.IsZero() {
		t.Errorf("allowance = %s, want 0", got.Dec())
	}
}

func TestTransferFrom(t *testing.T) {
	l := NewLedger()
	if err := l.Mint(alice, amt(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := l.Approve(alice, bob, amt(50)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := l.TransferFrom(alice, bob, carol, amt(20)); err != nil {
		t.Fatalf("transferFrom failed: %v", err)
	}
	if got := l.BalanceOf(carol); got.Cmp(amt(20)) != 0 {
		t.Errorf("carol = %s, want 20", got.Dec())
	}
	if got := l.Allowance(alice, bob); got.Cmp(amt(30)) != 0 {
		t.Errorf("allowance = %s, want 30", got.Dec())
	}
	checkConservation(t, l)

	if err := l.TransferFrom(alice, bob, carol, amt(31)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("got %v, want ErrInsufficientAllowance", err)
	}

	// Allowance above balance: balance is the binding constraint, and the
	// allowance must stay untouched on failure.
	if err := l.Approve(alice, bob, amt(500)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := l.TransferFrom(alice, bob, carol, amt(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}
	if got := l.Allowance(alice, bob); got.Cmp(amt(500)) != 0 {
		t.Errorf("allowance changed on failed transfer: %s, want 500", got.Dec())
	}
}

func TestBurn(t *testing.T) {
	l := NewLedger()
	if err := l.Mint(alice, amt(100)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// Burn requires a standing allowance even for settlement.
	if err := l.Burn(alice, bridge, amt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("got %v, want ErrInsufficientAllowance", err)
	}

	if err := l.Approve(alice, bridge, amt(60)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := l.Burn(alice, bridge, amt(60)); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if got := l.BalanceOf(alice); got.Cmp(amt(40)) != 0 {
		t.Errorf("alice = %s, want 40", got.Dec())
	}
	if got := l.TotalSupply(); got.Cmp(amt(40)) != 0 {
		t.Errorf("supply = %s, want 40", got.Dec())
	}
	checkConservation(t, l)

	// Allowance exceeding balance: burn fails on balance, allowance intact.
	if err := l.Approve(alice, bridge, amt(100)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := l.Burn(alice, bridge, amt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("got %v, want ErrInsufficientBalance", err)
	}
	if got := l.Allowance(alice, bridge); got.Cmp(amt(100)) != 0 {
		t.Errorf("allowance changed on failed burn: %s, want 100", got.Dec())
	}
}

func TestConservationUnderSequence(t *testing.T) {
	l := NewLedger()
	accounts := []common.Address{alice, bob, carol}

	for i := uint64(1); i <= 50; i++ {
		from := accounts[i%3]
		to := accounts[(i+1)%3]

		if err := l.Mint(from, amt(i*7)); err != nil {
			t.Fatalf("step %d: mint: %v", i, err)
		}
		if err := l.Transfer(from, to, amt(i)); err != nil {
			t.Fatalf("step %d: transfer: %v", i, err)
		}
		if i%5 == 0 {
			if err := l.Approve(to, bridge, amt(i)); err != nil {
				t.Fatalf("step %d: approve: %v", i, err)
			}
			if err := l.Burn(to, bridge, amt(i)); err != nil {
				t.Fatalf("step %d: burn: %v", i, err)
			}
		}
		checkConservation(t, l)
	}
}

func TestZeroAmountOperations(t *testing.T) {
	zero := amt(0)

	t.Run("absent accounts", func(t *testing.T) {
		// No balance or allowance entries exist for any party.
		l := NewLedger()
		if err := l.Transfer(alice, bob, zero); err != nil {
			t.Errorf("transfer: %v", err)
		}
		if err := l.TransferFrom(alice, bob, carol, zero); err != nil {
			t.Errorf("transferFrom: %v", err)
		}
		if err := l.Burn(alice, bridge, zero); err != nil {
			t.Errorf("burn: %v", err)
		}
		if err := l.SpendAllowance(alice, bob, zero); err != nil {
			t.Errorf("spendAllowance: %v", err)
		}
		if err := l.Mint(alice, zero); err != nil {
			t.Errorf("mint: %v", err)
		}
		if got := len(l.Balances()); got != 0 {
			t.Errorf("zero-amount ops created %d accounts", got)
		}
		if !l.TotalSupply().IsZero() {
			t.Errorf("supply = %s, want 0", l.TotalSupply().Dec())
		}
	})

	t.Run("existing entries untouched", func(t *testing.T) {
		l := NewLedger()
		if err := l.Mint(alice, amt(100)); err != nil {
			t.Fatalf("mint failed: %v", err)
		}
		if err := l.Approve(alice, bob, amt(40)); err != nil {
			t.Fatalf("approve failed: %v", err)
		}

		if err := l.Transfer(alice, bob, zero); err != nil {
			t.Errorf("transfer: %v", err)
		}
		if err := l.TransferFrom(alice, bob, carol, zero); err != nil {
			t.Errorf("transferFrom: %v", err)
		}
		if got := l.BalanceOf(alice); got.Cmp(amt(100)) != 0 {
			t.Errorf("alice = %s, want 100", got.Dec())
		}
		if got := l.Allowance(alice, bob); got.Cmp(amt(40)) != 0 {
			t.Errorf("allowance = %s, want 40", got.Dec())
		}
		checkConservation(t, l)
	})

	// Zero amounts do not bypass address validation.
	t.Run("address checks still apply", func(t *testing.T) {
		l := NewLedger()
		if err := l.Transfer(common.Address{}, bob, zero); !errors.Is(err, ErrZeroAddress) {
			t.Errorf("got %v, want ErrZeroAddress", err)
		}
		if err := l.Mint(common.Address{}, zero); !errors.Is(err, ErrZeroAddress) {
			t.Errorf("got %v, want ErrZeroAddress", err)
		}
	})
}

func TestImplicitAccountLifecycle(t *testing.T) {
	l := NewLedger()
	if err := l.Mint(alice, amt(5)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := l.Transfer(alice, bob, amt(5)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	// Zeroed accounts vanish from the snapshot.
	if _, ok := l.Balances()[alice]; ok {
		t.Errorf("zeroed account still present in snapshot")
	}
}
