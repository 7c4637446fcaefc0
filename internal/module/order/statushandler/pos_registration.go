package statushandler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dostavo/server/internal/adapter/posterminal"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
	"github.com/dostavo/server/internal/shared/queue"
)

// TaskSyncPOSRegistration is the background task that polls the
// acquirer for the registration outcome.
const TaskSyncPOSRegistration = "sync-pos-terminal-registration-status"

type posRegistrationPayload struct {
	Model           string `json:"model" validate:"required,oneof=PAX SUNMI"`
	SerialNumber    string `json:"serial_number" validate:"required,min=1,max=20"`
	InventoryNumber string `json:"inventory_number" validate:"omitempty,max=20"`
	Sum             string `json:"sum" validate:"omitempty,number"`
}

// POSRegistrationHandler submits a delivered POS terminal for
// registration with the acquirer. The status is repeatable: couriers
// may retry after a timeout or cancellation, but a registration that
// already started is never submitted twice.
type POSRegistrationHandler struct {
	repo      order.Repository
	recorder  history.Recorder
	registrar posterminal.Adapter
	publisher queue.Publisher
	validate  *validator.Validate
}

// NewPOSRegistrationHandler creates the handler for the
// "pos_terminal_registration" status.
func NewPOSRegistrationHandler(
	repo order.Repository,
	recorder history.Recorder,
	registrar posterminal.Adapter,
	publisher queue.Publisher,
) *POSRegistrationHandler {
	return &POSRegistrationHandler{
		repo:      repo,
		recorder:  recorder,
		registrar: registrar,
		publisher: publisher,
		validate:  validator.New(),
	}
}

func (h *POSRegistrationHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	var payload posRegistrationPayload
	if err := json.Unmarshal(tc.Payload, &payload); err != nil {
		return &order.ValidationError{Reason: "decode payload", Err: err}
	}
	if err := h.validate.Struct(&payload); err != nil {
		return &order.ValidationError{Reason: "invalid registration payload", Err: err}
	}

	product, err := h.repo.GetProductByOrderID(ctx, tc.Order.ID)
	if err != nil {
		return err
	}
	if product.Type != order.ProductTypePOSTerminal {
		return &order.ValidationError{Reason: "order does not deliver a pos terminal"}
	}

	switch product.Attribute(order.AttrRegistrationStatus) {
	case order.RegistrationStarted:
		return &order.NotAllowedError{Reason: "pos terminal registration already started"}
	case order.RegistrationCompleted:
		return &order.NotAllowedError{Reason: "pos terminal registration already completed"}
	case order.RegistrationCanceled, order.RegistrationTimeoutError:
		// The earlier submit already exists on the acquirer side.
		// Poll it again instead of registering a second terminal.
		if err := h.markEntered(ctx, tc); err != nil {
			return err
		}
		return h.enqueueSync(ctx, tc.Order.ID, product.Attribute(order.AttrBusinessKey))
	default:
		return h.register(ctx, tc, product, &payload)
	}
}

func (h *POSRegistrationHandler) register(ctx context.Context, tc *order.TransitionContext, product *order.Product, payload *posRegistrationPayload) error {
	businessKey, err := h.registrar.RegisterTerminal(ctx, &posterminal.RegistrationRequest{
		Model:           payload.Model,
		SerialNumber:    payload.SerialNumber,
		InventoryNumber: payload.InventoryNumber,
		Sum:             payload.Sum,
		MerchantIIN:     tc.Order.ReceiverIIN,
		MerchantPhone:   tc.Order.ReceiverPhoneNumber,
		RequestNumber:   uuid.NewString(),
	})
	if err != nil {
		if errors.Is(err, posterminal.ErrTimeout) || errors.Is(err, posterminal.ErrUnavailable) {
			return order.ErrAdapterUnavailable
		}
		return err
	}

	product.SetAttribute(order.AttrModel, payload.Model)
	product.SetAttribute(order.AttrSerialNumber, payload.SerialNumber)
	if payload.InventoryNumber != "" {
		product.SetAttribute(order.AttrInventoryNumber, payload.InventoryNumber)
	}
	if payload.Sum != "" {
		product.SetAttribute(order.AttrSum, payload.Sum)
	}
	product.SetAttribute(order.AttrRegistrationStatus, order.RegistrationStarted)
	product.SetAttribute(order.AttrBusinessKey, businessKey)
	if err := h.repo.UpdateProduct(ctx, product); err != nil {
		return err
	}

	if err := h.markEntered(ctx, tc); err != nil {
		return err
	}
	return h.enqueueSync(ctx, tc.Order.ID, businessKey)
}

// markEntered writes the status history row itself because the
// dispatcher skips bookkeeping for repeatable statuses. The order
// only moves when the row is new, repeat visits leave it in place.
func (h *POSRegistrationHandler) markEntered(ctx context.Context, tc *order.TransitionContext) error {
	_, created, err := h.recorder.RecordStatusHistory(ctx, tc.Order.ID, tc.Target.ID, tc.At)
	if err != nil {
		return err
	}
	if created {
		tc.Order.CurrentStatusID = tc.Target.ID
	}
	return nil
}

func (h *POSRegistrationHandler) enqueueSync(ctx context.Context, orderID int64, businessKey string) error {
	if businessKey == "" {
		return &order.NotAllowedError{Reason: "registration has no business key to sync"}
	}
	return h.publisher.Enqueue(ctx, TaskSyncPOSRegistration, map[string]any{
		"order_id":     orderID,
		"business_key": businessKey,
	})
}
