// Package statushandler implements the side effects of entering each
// delivery-graph status. Handlers are registered by status code and
// invoked by the order transition dispatcher inside its transaction.
package statushandler

import (
	"context"
	"fmt"

	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
)

// ResetHandler returns an order to the start of its graph: the
// delivery outcome, accumulated status history and SMS postcontrol
// rows are wiped so the delivery can run again from scratch.
type ResetHandler struct {
	repo     order.Repository
	recorder history.Recorder
}

// NewResetHandler creates the handler for the "new" status.
func NewResetHandler(repo order.Repository, recorder history.Recorder) *ResetHandler {
	return &ResetHandler{repo: repo, recorder: recorder}
}

func (h *ResetHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	tc.Order.ResetDeliveryStatus()

	if err := h.recorder.DeleteStatusHistory(ctx, tc.Order.ID); err != nil {
		return fmt.Errorf("wipe status history: %w", err)
	}
	if err := h.repo.DeleteSMSPostControls(ctx, tc.Order.ID); err != nil {
		return fmt.Errorf("wipe sms postcontrols: %w", err)
	}
	return nil
}
