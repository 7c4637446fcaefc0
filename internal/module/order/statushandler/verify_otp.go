package statushandler

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"

	"github.com/dostavo/server/internal/adapter/otp"
	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
	"github.com/dostavo/server/internal/module/status"
)

type verifyOTPPayload struct {
	Code          string          `json:"code"`
	CodeSentPoint *order.GeoPoint `json:"code_sent_point"`
}

// VerifyOTPHandler checks the code the receiver dictated to the
// courier and, on success, advances the order straight to the next
// graph step so photo capture can begin.
type VerifyOTPHandler struct {
	repo       order.Repository
	statusRepo status.Repository
	recorder   history.Recorder
	otps       *otp.Registry
}

// NewVerifyOTPHandler creates the handler for the "verify_otp" status.
func NewVerifyOTPHandler(
	repo order.Repository,
	statusRepo status.Repository,
	recorder history.Recorder,
	otps *otp.Registry,
) *VerifyOTPHandler {
	return &VerifyOTPHandler{
		repo:       repo,
		statusRepo: statusRepo,
		recorder:   recorder,
		otps:       otps,
	}
}

func (h *VerifyOTPHandler) Handle(ctx context.Context, tc *order.TransitionContext) error {
	var payload verifyOTPPayload
	if err := json.Unmarshal(tc.Payload, &payload); err != nil {
		return &order.ValidationError{Reason: "decode payload", Err: err}
	}
	if payload.Code == "" {
		return &order.ValidationError{Reason: "verification code is required"}
	}
	if payload.CodeSentPoint == nil {
		return &order.ValidationError{Reason: "code_sent_point is required"}
	}

	adapter, err := h.otps.ForPartner(tc.Order.PartnerID)
	if err != nil {
		return err
	}
	err = adapter.VerifyCode(ctx, tc.Order.ReceiverPhoneNumber, payload.Code, tc.Order.ID)
	switch {
	case errors.Is(err, otp.ErrWrongCode):
		return order.ErrWrongOTPCode
	case errors.Is(err, otp.ErrUnavailable):
		return order.ErrAdapterUnavailable
	case err != nil:
		return err
	}

	if tc.Order.CourierID != nil {
		if err := h.saveGeolocation(ctx, tc, payload.CodeSentPoint); err != nil {
			return err
		}
	}

	return h.advance(ctx, tc)
}

// advance moves the order past verification to the following graph
// step, writing that step's own status history row.
func (h *VerifyOTPHandler) advance(ctx context.Context, tc *order.TransitionContext) error {
	next := tc.Graph.NextByPosition(tc.Node.Code)
	if next == nil {
		return nil
	}

	nextStatus, err := h.statusRepo.GetStatusByCode(ctx, next.Code)
	if err != nil {
		return err
	}
	if _, _, err := h.recorder.RecordStatusHistory(ctx, tc.Order.ID, nextStatus.ID, tc.At); err != nil {
		return err
	}

	tc.Order.CurrentStatusID = nextStatus.ID
	return nil
}

func (h *VerifyOTPHandler) saveGeolocation(ctx context.Context, tc *order.TransitionContext, point *order.GeoPoint) error {
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
	geo.CodeSentPoint = &p
	return h.repo.SaveGeolocation(ctx, geo)
}
