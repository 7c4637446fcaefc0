package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dostavo/server/internal/shared/config"
)

// httpProvider holds what both concrete providers share.
type httpProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

func (p *httpProvider) post(ctx context.Context, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, ErrUnavailable
		}
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// posTerminalProvider is the acquirer's own SMS gate, used for orders
// that deliver POS terminals.
type posTerminalProvider struct {
	httpProvider
}

func newPOSTerminalProvider(entry config.OTPPartnerEntry, timeout time.Duration, logger *zap.Logger) *posTerminalProvider {
	return &posTerminalProvider{httpProvider{
		baseURL: entry.BaseURL,
		apiKey:  entry.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}}
}

func (p *posTerminalProvider) SendCode(ctx context.Context, phone string, orderID int64) error {
	status, err := p.post(ctx, "/otp/send", map[string]any{
		"phone":    phone,
		"order_id": orderID,
	}, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("otp send failed with status %d", status)
	}
	p.logger.Debug("otp code sent", zap.Int64("order_id", orderID))
	return nil
}

func (p *posTerminalProvider) VerifyCode(ctx context.Context, phone, code string, orderID int64) error {
	var out struct {
		Valid bool `json:"valid"`
	}
	status, err := p.post(ctx, "/otp/verify", map[string]any{
		"phone":    phone,
		"code":     code,
		"order_id": orderID,
	}, &out)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusUnprocessableEntity, status < 300 && !out.Valid:
		return ErrWrongCode
	case status >= 300:
		return fmt.Errorf("otp verify failed with status %d", status)
	}
	return nil
}

// freedomBankProvider talks to the bank's notification service.
type freedomBankProvider struct {
	httpProvider
}

func newFreedomBankProvider(entry config.OTPPartnerEntry, timeout time.Duration, logger *zap.Logger) *freedomBankProvider {
	return &freedomBankProvider{httpProvider{
		baseURL: entry.BaseURL,
		apiKey:  entry.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}}
}

func (p *freedomBankProvider) SendCode(ctx context.Context, phone string, orderID int64) error {
	status, err := p.post(ctx, "/v2/sms/code", map[string]any{
		"msisdn":    phone,
		"reference": fmt.Sprintf("order-%d", orderID),
	}, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("otp send failed with status %d", status)
	}
	p.logger.Debug("otp code sent", zap.Int64("order_id", orderID))
	return nil
}

func (p *freedomBankProvider) VerifyCode(ctx context.Context, phone, code string, orderID int64) error {
	var out struct {
		Result string `json:"result"`
	}
	status, err := p.post(ctx, "/v2/sms/code/check", map[string]any{
		"msisdn":    phone,
		"code":      code,
		"reference": fmt.Sprintf("order-%d", orderID),
	}, &out)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("otp verify failed with status %d", status)
	}
	if out.Result != "ok" {
		return ErrWrongCode
	}
	return nil
}
