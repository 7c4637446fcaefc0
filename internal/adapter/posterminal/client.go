// Package posterminal talks to the acquirer service that registers POS
// terminals delivered to merchants.
package posterminal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/dostavo/server/internal/shared/config"
	"github.com/dostavo/server/internal/shared/metrics"
)

var (
	// ErrTimeout means the acquirer did not answer in time. The
	// registration may be retried.
	ErrTimeout = errors.New("pos terminal registration timed out")
	// ErrUnavailable means the circuit breaker is open.
	ErrUnavailable = errors.New("pos terminal registration service unavailable")
)

// RejectionError is a definitive refusal from the acquirer.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("pos terminal registration rejected (%d): %s", e.StatusCode, e.Message)
}

// RegistrationRequest is the payload sent to the acquirer.
type RegistrationRequest struct {
	Model           string `json:"model"`
	SerialNumber    string `json:"serial_number"`
	InventoryNumber string `json:"inventory_number,omitempty"`
	Sum             string `json:"sum,omitempty"`
	MerchantIIN     string `json:"merchant_iin"`
	MerchantPhone   string `json:"merchant_phone"`
	RequestNumber   string `json:"request_number"`
}

// Adapter registers POS terminals with the acquirer.
type Adapter interface {
	// RegisterTerminal submits a registration and returns the business
	// key the acquirer tracks it under.
	RegisterTerminal(ctx context.Context, req *RegistrationRequest) (string, error)
}

// Client is the HTTP implementation of Adapter.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient creates a registration client guarded by a circuit breaker.
func NewClient(cfg *config.POSTerminalConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "pos-terminal-registration",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// Definitive rejections are answers, not outages.
			var rejection *RejectionError
			return err == nil || errors.As(err, &rejection)
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		metrics: m,
		logger:  logger,
	}
}

func (c *Client) RegisterTerminal(ctx context.Context, req *RegistrationRequest) (string, error) {
	key, err := c.breaker.Execute(func() (string, error) {
		return c.register(ctx, req)
	})
	c.metrics.AdapterRequestsTotal.WithLabelValues("pos_terminal", resultLabel(err)).Inc()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", err
	}
	return key, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "open"
	default:
		return "error"
	}
}

func (c *Client) register(ctx context.Context, req *RegistrationRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal registration request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/registrations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("pos terminal registration timed out",
				zap.String("request_number", req.RequestNumber))
			return "", ErrTimeout
		}
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 400 {
		return "", &RejectionError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var out struct {
		BusinessKey string `json:"business_key"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode registration response: %w", err)
	}
	if out.BusinessKey == "" {
		return "", fmt.Errorf("registration response has no business key")
	}

	c.logger.Info("pos terminal registration submitted",
		zap.String("request_number", req.RequestNumber),
		zap.String("business_key", out.BusinessKey))
	return out.BusinessKey, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
