package statushandler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dostavo/server/internal/adapter/cdek"
	"github.com/dostavo/server/internal/module/order"
)

type transferToCDEKPayload struct {
	WarehouseID string   `json:"warehouse_id" validate:"required"`
	Latitude    *float64 `json:"latitude" validate:"required"`
	Longitude   *float64 `json:"longitude" validate:"required"`
	Address     string   `json:"address" validate:"required"`
}

// TransferToCDEKHandler hands an undeliverable order to the CDEK
// courier service: the order is registered with CDEK and tracked under
// the returned track number from then on.
type TransferToCDEKHandler struct {
	cdek     cdek.Adapter
	validate *validator.Validate
}

// NewTransferToCDEKHandler creates the handler for the
// "transfer_to_cdek" status.
func NewTransferToCDEKHandler(adapter cdek.Adapter) *TransferToCDEKHandler {
	return &TransferToCDEKHandler{
		cdek:     adapter,
		validate: validator.New(),
	}
}

func (h *TransferToCDEKHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	var payload transferToCDEKPayload
	if err := json.Unmarshal(tc.Payload, &payload); err != nil {
		return &order.ValidationError{Reason: "decode payload", Err: err}
	}
	if err := h.validate.Struct(&payload); err != nil {
		return &order.ValidationError{Reason: "invalid cdek order payload", Err: err}
	}

	track, err := h.cdek.CreateOrder(ctx, &cdek.OrderRequest{
		ShipmentPoint:  payload.WarehouseID,
		RecipientName:  tc.Order.ReceiverName,
		RecipientPhone: tc.Order.ReceiverPhoneNumber,
		Latitude:       *payload.Latitude,
		Longitude:      *payload.Longitude,
		Address:        payload.Address,
		PackageNumber:  strconv.FormatInt(tc.Order.ID, 10),
	})
	if err != nil {
		if errors.Is(err, cdek.ErrTimeout) {
			return order.ErrAdapterUnavailable
		}
		return err
	}

	tc.Order.TrackNumber = track
	tc.Order.CourierService = order.CourierServiceCDEK
	tc.Order.SetDeliveryStatus(order.DeliveryOutcomeTransferToCDEK, tc.At, nil, nil)
	return nil
}
