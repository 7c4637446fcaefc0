package statushandler

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"

	"github.com/dostavo/server/internal/adapter/otp"
	"github.com/dostavo/server/internal/module/order"
)

type sendOTPPayload struct {
	AtClientPoint *order.GeoPoint `json:"at_client_point"`
}

// SendOTPHandler asks the partner's OTP provider to text a code to the
// receiver, and remembers where the courier stood when it was sent.
type SendOTPHandler struct {
	repo order.Repository
	otps *otp.Registry
}

// NewSendOTPHandler creates the handler for the "send_otp" status.
func NewSendOTPHandler(repo order.Repository, otps *otp.Registry) *SendOTPHandler {
	return &SendOTPHandler{repo: repo, otps: otps}
}

func (h *SendOTPHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	var payload sendOTPPayload
	if len(tc.Payload) > 0 {
		if err := json.Unmarshal(tc.Payload, &payload); err != nil {
			return &order.ValidationError{Reason: "decode payload", Err: err}
		}
	}

	adapter, err := h.otps.ForPartner(tc.Order.PartnerID)
	if err != nil {
		return err
	}
	if err := adapter.SendCode(ctx, tc.Order.ReceiverPhoneNumber, tc.Order.ID); err != nil {
		if errors.Is(err, otp.ErrUnavailable) {
			return order.ErrAdapterUnavailable
		}
		return err
	}

	if payload.AtClientPoint != nil && tc.Order.CourierID != nil {
		if err := h.saveGeolocation(ctx, tc, payload.AtClientPoint); err != nil {
			return err
		}
	}

	// The step is logged but the order waits at its current status
	// until the code is verified.
	tc.KeepCurrent = true
	return nil
}

func (h *SendOTPHandler) saveGeolocation(ctx context.Context, tc *order.TransitionContext, point *order.GeoPoint) error {
	geo, err := h.repo.GetGeolocation(ctx, tc.Order.ID)
	if err != nil {
		if !errors.Is(err, order.ErrGeolocationNotFound) {
			return err
		}
		geo = &order.Geolocation{
			OrderID:   tc.Order.ID,
			CourierID: *tc.Order.CourierID,
		}
	}
	p := datatypes.NewJSONType(*point)
	geo.AtClientPoint = &p
	return h.repo.SaveGeolocation(ctx, geo)
}
