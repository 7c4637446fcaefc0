package posterminal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dostavo/server/internal/shared/config"
	"github.com/dostavo/server/internal/shared/metrics"
)

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	cfg := &config.POSTerminalConfig{
		BaseURL:          baseURL,
		Timeout:          timeout,
		FailureThreshold: 3,
		BreakerTimeout:   time.Minute,
	}
	m := metrics.NewWith("test", prometheus.NewRegistry())
	return NewClient(cfg, m, zap.NewNop())
}

func TestRegisterTerminal_ReturnsBusinessKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/registrations", r.URL.Path)
		w.Write([]byte(`{"business_key":"bk-42"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	key, err := c.RegisterTerminal(context.Background(), &RegistrationRequest{
		Model:         "PAX",
		SerialNumber:  "SN-1",
		MerchantIIN:   "870101300123",
		MerchantPhone: "+77010000000",
		RequestNumber: "req-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "bk-42", key)
}

func TestRegisterTerminal_RejectionIsNotAnOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate serial number", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	// Well past the failure threshold; rejections must not open the breaker.
	for i := 0; i < 5; i++ {
		_, err := c.RegisterTerminal(context.Background(), &RegistrationRequest{RequestNumber: "req-1"})
		var rejection *RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, http.StatusUnprocessableEntity, rejection.StatusCode)
	}
}

func TestRegisterTerminal_TimeoutOpensBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 20*time.Millisecond)

	for i := 0; i < 3; i++ {
		_, err := c.RegisterTerminal(context.Background(), &RegistrationRequest{RequestNumber: "req-1"})
		require.ErrorIs(t, err, ErrTimeout)
	}

	_, err := c.RegisterTerminal(context.Background(), &RegistrationRequest{RequestNumber: "req-1"})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 3, calls.Load(), "open breaker must not reach the acquirer")
}

func TestRegisterTerminal_MissingBusinessKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)

	_, err := c.RegisterTerminal(context.Background(), &RegistrationRequest{RequestNumber: "req-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "business key")
}
