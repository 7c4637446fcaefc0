package statushandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dostavo/server/internal/adapter/cdek"
	"github.com/dostavo/server/internal/module/order"
	"github.com/dostavo/server/internal/module/status"
)

func cdekContext(payload string) *order.TransitionContext {
	return &order.TransitionContext{
		Order: &order.Order{
			ID:                  10,
			CurrentStatusID:     2,
			ReceiverName:        "A. Receiver",
			ReceiverPhoneNumber: "+77010000000",
		},
		Target:  &status.Status{ID: 9, Code: status.CodeTransferToCDEK},
		Payload: json.RawMessage(payload),
		At:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransferToCDEK_StoresTrackNumber(t *testing.T) {
	adapter := &mockCDEK{trackNumber: "549b1ab8-518c"}
	h := NewTransferToCDEKHandler(adapter)
	tc := cdekContext(`{"status":"transfer_to_cdek","warehouse_id":"WH-7","latitude":43.24,"longitude":76.95,"address":"Abay 10"}`)

	require.NoError(t, h.Handle(context.Background(), tc))

	require.NotNil(t, adapter.lastReq)
	assert.Equal(t, "WH-7", adapter.lastReq.ShipmentPoint)
	assert.Equal(t, "A. Receiver", adapter.lastReq.RecipientName)
	assert.Equal(t, "10", adapter.lastReq.PackageNumber)

	assert.Equal(t, "549b1ab8-518c", tc.Order.TrackNumber)
	assert.Equal(t, order.CourierServiceCDEK, tc.Order.CourierService)

	outcome := tc.Order.DeliveryStatus.Data()
	require.NotNil(t, outcome.Status)
	assert.Equal(t, order.DeliveryOutcomeTransferToCDEK, *outcome.Status)
	assert.Equal(t, tc.At, *outcome.Datetime)
}

func TestTransferToCDEK_PayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing warehouse", `{"latitude":43.24,"longitude":76.95,"address":"Abay 10"}`},
		{"missing coordinates", `{"warehouse_id":"WH-7","address":"Abay 10"}`},
		{"missing address", `{"warehouse_id":"WH-7","latitude":43.24,"longitude":76.95}`},
		{"empty body", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &mockCDEK{}
			h := NewTransferToCDEKHandler(adapter)

			err := h.Handle(context.Background(), cdekContext(tt.payload))

			var validation *order.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Zero(t, adapter.calls)
		})
	}
}

func TestTransferToCDEK_TimeoutIsRetryable(t *testing.T) {
	adapter := &mockCDEK{err: cdek.ErrTimeout}
	h := NewTransferToCDEKHandler(adapter)
	tc := cdekContext(`{"warehouse_id":"WH-7","latitude":43.24,"longitude":76.95,"address":"Abay 10"}`)

	err := h.Handle(context.Background(), tc)

	assert.ErrorIs(t, err, order.ErrAdapterUnavailable)
	assert.Empty(t, tc.Order.TrackNumber)
	assert.Empty(t, tc.Order.CourierService)
}
