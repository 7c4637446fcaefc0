package statushandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/dostavo/server/internal/module/history"
	"github.com/dostavo/server/internal/module/order"
)

func cancelledOrder() *order.Order {
	o := &order.Order{ID: 10, CurrentStatusID: 6}
	reason := "receiver refused"
	at := time.Date(2025, 5, 30, 18, 0, 0, 0, time.UTC)
	o.DeliveryStatus = datatypes.NewJSONType(order.DeliveryStatus{
		Status:   ptr(order.DeliveryOutcomeCancelled),
		Datetime: &at,
		Reason:   &reason,
	})
	return o
}

func ptr[T any](v T) *T { return &v }

func TestReset_WipesOutcomeHistoryAndPostcontrols(t *testing.T) {
	repo := &mockRepo{}
	recorder := &mockRecorder{statusRows: []history.OrderStatus{
		{OrderID: 10, StatusID: 2},
		{OrderID: 10, StatusID: 6},
	}}
	h := NewResetHandler(repo, recorder)

	tc := &order.TransitionContext{Order: cancelledOrder()}
	require.NoError(t, h.Handle(context.Background(), tc))

	assert.Nil(t, tc.Order.DeliveryStatus.Data().Status)
	assert.Equal(t, 1, recorder.deleteCalls)
	assert.Empty(t, recorder.statusRows)
	assert.Equal(t, 1, repo.smsWipes)
}

func TestCardReturned_ClearsOutcomeOnly(t *testing.T) {
	h := NewCardReturnedHandler()

	tc := &order.TransitionContext{Order: cancelledOrder()}
	require.NoError(t, h.Handle(context.Background(), tc))

	assert.Nil(t, tc.Order.DeliveryStatus.Data().Status)
}

func TestCancelledAtClient_RecordsOutcome(t *testing.T) {
	now := time.Date(2025, 6, 1, 21, 30, 0, 0, time.UTC)
	h := NewCancelledAtClientHandler()

	tc := &order.TransitionContext{
		Order:   &order.Order{ID: 10},
		Payload: json.RawMessage(`{"status":"cancelled_at_client","reason":"wrong address","comment":"call first"}`),
		At:      now,
	}
	require.NoError(t, h.Handle(context.Background(), tc))

	outcome := tc.Order.DeliveryStatus.Data()
	require.NotNil(t, outcome.Status)
	assert.Equal(t, order.DeliveryOutcomeCancelled, *outcome.Status)
	assert.Equal(t, now, *outcome.Datetime)
	assert.Equal(t, "wrong address", *outcome.Reason)
	assert.Equal(t, "call first", *outcome.Comment)
}

func TestCancelledAtClient_ReasonRequired(t *testing.T) {
	h := NewCancelledAtClientHandler()

	tc := &order.TransitionContext{
		Order:   &order.Order{ID: 10},
		Payload: json.RawMessage(`{"status":"cancelled_at_client"}`),
	}
	err := h.Handle(context.Background(), tc)

	require.Error(t, err)
	assert.Nil(t, tc.Order.DeliveryStatus.Data().Status)
}
