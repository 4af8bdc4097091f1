// Package upgrade implements the version-dispatch upgrade controller.
//
// Instead of a code-pointer swap, the controller holds an explicit table of
// registered implementations keyed by version id and a pointer to the active
// one. Swapping the pointer preserves the observable contract of a proxy
// upgrade (old state, new behavior) in a host-agnostic way.
//
// Layout compatibility between consecutive versions is a review/CI concern:
// each implementation publishes its layout.Schema and layout.Diff checks the
// pair, but UpgradeTo does not re-check it at execution time.
package upgrade

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokengate-xyz/go-tokengate/access"
	"github.com/tokengate-xyz/go-tokengate/layout"
)

// ProxiableMarker is the self-identification probe answer every conformant
// implementation must return. A target answering anything else is not built
// for this controller and is rejected before any state changes.
var ProxiableMarker = common.Hash(crypto.Keccak256([]byte("io.tokengate.proxiable.v1")))

var (
	ErrNotUpgradeable     = errors.New("upgrade: target is not upgradeable")
	ErrAlreadyInitialized = errors.New("upgrade: post-upgrade initializer already ran")
	ErrAlreadyRegistered  = errors.New("upgrade: implementation already registered")
)

// Implementation is one registered behavior version.
type Implementation interface {
	// ID returns the version identifier.
	ID() common.Hash

	// ProxiableID is the conformance probe; it must return ProxiableMarker.
	ProxiableID() common.Hash

	// Layout returns the storage layout this version assumes.
	Layout() layout.Schema

	// PostUpgrade is the bounded one-time initializer for fields introduced
	// by this version. The controller guarantees it runs at most once.
	PostUpgrade(data []byte) error
}

// Controller holds the implementation table and the active version pointer.
type Controller struct {
	registry *access.Registry
	impls    map[common.Hash]Implementation
	active   common.Hash
	ran      map[common.Hash]bool
}

// NewController creates a controller serving genesis as the active version.
// The genesis implementation must pass the conformance probe; its
// initializer is considered spent (genesis setup happens in the token's own
// initialization, not through an upgrade).
func NewController(registry *access.Registry, genesis Implementation) (*Controller, error) {
	if err := probe(genesis); err != nil {
		return nil, err
	}
	c := &Controller{
		registry: registry,
		impls:    map[common.Hash]Implementation{genesis.ID(): genesis},
		active:   genesis.ID(),
		ran:      map[common.Hash]bool{genesis.ID(): true},
	}
	return c, nil
}

// Register adds an implementation to the dispatch table without activating
// it.
func (c *Controller) Register(impl Implementation) error {
	if err := probe(impl); err != nil {
		return err
	}
	if _, ok := c.impls[impl.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, impl.ID().Hex())
	}
	c.impls[impl.ID()] = impl
	return nil
}

// UpgradeTo swaps the active version pointer to the implementation with the
// given id, optionally running its one-time post-upgrade initializer with
// initData. The caller must hold the upgrader role. The swap and the
// initializer are one atomic step: an initializer failure leaves the old
// version active.
func (c *Controller) UpgradeTo(caller common.Address, id common.Hash, initData []byte) error {
	if err := c.registry.CheckRole(access.RoleUpgrader, caller); err != nil {
		return err
	}
	impl, ok := c.impls[id]
	if !ok {
		return fmt.Errorf("%w: unknown implementation %s", ErrNotUpgradeable, id.Hex())
	}
	if err := probe(impl); err != nil {
		return err
	}

	if len(initData) > 0 {
		if c.ran[id] {
			return fmt.Errorf("%w: version %s", ErrAlreadyInitialized, id.Hex())
		}
		if err := impl.PostUpgrade(initData); err != nil {
			return fmt.Errorf("upgrade: post-upgrade initializer: %w", err)
		}
		c.ran[id] = true
	}

	c.active = id
	return nil
}

// Active returns the active version id.
func (c *Controller) Active() common.Hash { return c.active }

// ActiveImplementation returns the implementation currently being served.
func (c *Controller) ActiveImplementation() Implementation { return c.impls[c.active] }

// Implementation looks up a registered implementation by version id.
func (c *Controller) Implementation(id common.Hash) (Implementation, bool) {
	impl, ok := c.impls[id]
	return impl, ok
}

// Versions returns the registered version ids, active first.
func (c *Controller) Versions() []common.Hash {
	out := []common.Hash{c.active}
	for id := range c.impls {
		if id != c.active {
			out = append(out, id)
		}
	}
	return out
}

func probe(impl Implementation) error {
	if impl == nil {
		return fmt.Errorf("%w: nil implementation", ErrNotUpgradeable)
	}
	if impl.ProxiableID() != ProxiableMarker {
		return fmt.Errorf("%w: %s failed conformance probe", ErrNotUpgradeable, impl.ID().Hex())
	}
	return nil
}
