package timelock

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Handler consumes a governance payload addressed to one target.
type Handler func(payload []byte) error

// Router dispatches executed calls to handlers registered per target
// address. It is the host-agnostic stand-in for on-chain call dispatch.
type Router struct {
	handlers map[common.Address]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[common.Address]Handler)}
}

// Register binds a handler to a target address, replacing any previous one.
func (r *Router) Register(target common.Address, h Handler) {
	r.handlers[target] = h
}

// Dispatch routes payload to the handler registered for target.
func (r *Router) Dispatch(target common.Address, payload []byte) error {
	h, ok := r.handlers[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, target.Hex())
	}
	return h(payload)
}
