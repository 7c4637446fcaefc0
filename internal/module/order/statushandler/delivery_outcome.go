package statushandler

import (
	"context"
	"encoding/json"

	"github.com/dostavo/server/internal/module/order"
)

// CardReturnedHandler handles a card the receiver never collected:
// the delivery outcome is cleared so the order reads as back in the
// bank's hands.
type CardReturnedHandler struct{}

// NewCardReturnedHandler creates the handler for the
// "card_returned_to_bank" status.
func NewCardReturnedHandler() *CardReturnedHandler {
	return &CardReturnedHandler{}
}

func (h *CardReturnedHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	tc.Order.ResetDeliveryStatus()
	return nil
}

type cancellationPayload struct {
	Reason  string  `json:"reason"`
	Comment *string `json:"comment"`
}

// CancelledAtClientHandler records a cancellation that happened at the
// receiver's door, stamped with the order city's local time.
type CancelledAtClientHandler struct{}

// NewCancelledAtClientHandler creates the handler for the
// "cancelled_at_client" status.
func NewCancelledAtClientHandler() *CancelledAtClientHandler {
	return &CancelledAtClientHandler{}
}

func (h *CancelledAtClientHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	var payload cancellationPayload
	if err := json.Unmarshal(tc.Payload, &payload); err != nil {
		return &order.ValidationError{Reason: "decode payload", Err: err}
	}
	if payload.Reason == "" {
		return &order.ValidationError{Reason: "cancellation reason is required"}
	}

	tc.Order.SetDeliveryStatus(order.DeliveryOutcomeCancelled, tc.At, &payload.Reason, payload.Comment)
	return nil
}
