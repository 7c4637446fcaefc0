package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dostavo/server/internal/module/deliverygraph"
	"github.com/dostavo/server/internal/module/status"
)

// TransitionContext carries the locked order and the resolved target
// status into a handler. Handlers mutate Order in memory; the
// dispatcher persists it once the handler returns.
type TransitionContext struct {
	Order   *Order
	Current *status.Status
	Target  *status.Status
	Graph   *deliverygraph.Graph
	Node    *deliverygraph.Node
	Actor   Actor
	// At is the order-local wall time of this transition, resolved once
	// by the dispatcher. Every history row the transition produces uses
	// this same timestamp.
	At time.Time
	// Payload is the raw request body forwarded to the handler.
	// Handlers bind and validate it themselves.
	Payload json.RawMessage
	// KeepCurrent pins the order to its current status even though
	// the transition is recorded. Sending an OTP is logged as a step
	// but the order stays where it is until the code is verified.
	KeepCurrent bool
}

// StatusHandler runs the side effects of entering one status.
type StatusHandler interface {
	Handle(ctx context.Context, tc *TransitionContext) error
}

// HandlerFunc adapts a function to StatusHandler.
type HandlerFunc func(ctx context.Context, tc *TransitionContext) error

func (f HandlerFunc) Handle(ctx context.Context, tc *TransitionContext) error {
	return f(ctx, tc)
}

// HandlerRegistry maps status codes to their handlers. Statuses with
// no registered handler get bookkeeping only.
type HandlerRegistry struct {
	handlers map[string]StatusHandler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]StatusHandler)}
}

// Register binds a handler to a status code. Registering the same code
// twice panics, misregistration is a wiring bug.
func (r *HandlerRegistry) Register(code string, h StatusHandler) {
	if _, exists := r.handlers[code]; exists {
		panic(fmt.Sprintf("status handler for %q registered twice", code))
	}
	r.handlers[code] = h
}

// Resolve returns the handler for code, or nil when none is bound.
func (r *HandlerRegistry) Resolve(code string) StatusHandler {
	return r.handlers[code]
}
