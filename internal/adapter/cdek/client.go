// Package cdek talks to the CDEK courier service API: orders that
// leave the partner's own couriers are handed to CDEK for last-mile
// delivery under a track number.
package cdek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/dostavo/server/internal/shared/config"
	"github.com/dostavo/server/internal/shared/metrics"
)

var (
	// ErrTimeout means CDEK did not answer in time. The handover may be
	// retried.
	ErrTimeout = errors.New("cdek request timed out")
)

// OrderRequest carries what CDEK needs to pick up one order.
type OrderRequest struct {
	ShipmentPoint  string
	RecipientName  string
	RecipientPhone string
	Latitude       float64
	Longitude      float64
	Address        string
	PackageNumber  string
}

// Adapter hands orders over to CDEK.
type Adapter interface {
	// CreateOrder registers the order with CDEK and returns its track
	// number.
	CreateOrder(ctx context.Context, req *OrderRequest) (string, error)
}

// Client is the HTTP implementation of Adapter. CDEK authenticates
// with short-lived OAuth tokens; the client fetches one lazily and
// refreshes it when a request comes back 401.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	senderName   string
	senderPhone  string
	developerKey string
	http         *http.Client
	metrics      *metrics.Metrics
	logger       *zap.Logger

	mu    sync.Mutex
	token string
}

// NewClient creates a CDEK API client.
func NewClient(cfg *config.CDEKConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		senderName:   cfg.SenderName,
		senderPhone:  cfg.SenderPhone,
		developerKey: cfg.DeveloperKey,
		http:         &http.Client{Timeout: cfg.Timeout},
		metrics:      m,
		logger:       logger,
	}
}

func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (string, error) {
	track, err := c.createOrder(ctx, req)
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, ErrTimeout) {
			result = "timeout"
		}
	}
	c.metrics.AdapterRequestsTotal.WithLabelValues("cdek", result).Inc()
	return track, err
}

func (c *Client) createOrder(ctx context.Context, req *OrderRequest) (string, error) {
	// CDEK keys delivery locations by its own codes, so the coordinates
	// are resolved to a location first.
	var location struct {
		Code     int    `json:"code"`
		City     string `json:"city"`
		FiasGUID string `json:"fias_guid"`
	}
	locationURL := fmt.Sprintf("/location/coordinates?latitude=%s&longitude=%s",
		url.QueryEscape(strconv.FormatFloat(req.Latitude, 'f', -1, 64)),
		url.QueryEscape(strconv.FormatFloat(req.Longitude, 'f', -1, 64)),
	)
	if err := c.call(ctx, http.MethodGet, locationURL, nil, &location); err != nil {
		return "", fmt.Errorf("resolve cdek location: %w", err)
	}

	var created struct {
		Entity struct {
			UUID string `json:"uuid"`
		} `json:"entity"`
	}
	body := c.newOrderBody(req, location.Code, location.City, location.FiasGUID)
	if err := c.call(ctx, http.MethodPost, "/orders", body, &created); err != nil {
		return "", fmt.Errorf("create cdek order: %w", err)
	}
	if created.Entity.UUID == "" {
		return "", fmt.Errorf("cdek order response has no track number")
	}

	c.logger.Info("cdek order created",
		zap.String("package_number", req.PackageNumber),
		zap.String("track_number", created.Entity.UUID))
	return created.Entity.UUID, nil
}

// call performs one authenticated request, refreshing the token and
// retrying once when CDEK answers 401.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	status, err := c.do(ctx, method, path, payload, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.invalidateToken()
		status, err = c.do(ctx, method, path, payload, out)
		if err != nil {
			return err
		}
	}
	if status >= 300 {
		return fmt.Errorf("cdek answered %d", status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) (int, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return 0, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, ErrTimeout
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

func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token",
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrTimeout
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("cdek token request answered %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("cdek token response has no access token")
	}

	c.token = tokenResp.AccessToken
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
