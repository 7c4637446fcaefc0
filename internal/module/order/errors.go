package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrGeolocationNotFound = errors.New("geolocation not found")
	ErrCourierNotFound     = errors.New("courier not found")

	// ErrWrongOTPCode signals a verification code that does not match
	// the one sent to the receiver.
	ErrWrongOTPCode = errors.New("wrong otp code")
	// ErrAdapterUnavailable signals a downstream adapter that timed
	// out or tripped its circuit breaker. The transition can be
	// retried later.
	ErrAdapterUnavailable = errors.New("external adapter unavailable")
)

// IllegalTransitionError is returned when the graph defines no path
// from the order's current status to the requested one.
type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %q to %q", e.From, e.To)
}

// UnknownStatusError is returned when the order's current status or the
// requested target status has no node in the order's delivery graph.
type UnknownStatusError struct {
	Code string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("status %q is not part of the order's delivery graph", e.Code)
}

// HandlerExecutionError wraps a failure inside a status transition
// handler. The dispatcher aborts the transition and no history or
// status change is persisted.
type HandlerExecutionError struct {
	Status string
	Err    error
}

func (e *HandlerExecutionError) Error() string {
	return fmt.Sprintf("status handler %q failed: %v", e.Status, e.Err)
}

func (e *HandlerExecutionError) Unwrap() error {
	return e.Err
}

// ValidationError signals a malformed or incomplete handler payload,
// or a precondition on the order's data that the payload cannot fix,
// such as the wrong product type.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotAllowedError signals a transition that is structurally valid but
// rejected by business rules, such as re-registering a POS terminal
// whose registration already started.
type NotAllowedError struct {
	Reason string
}

func (e *NotAllowedError) Error() string {
	return e.Reason
}
