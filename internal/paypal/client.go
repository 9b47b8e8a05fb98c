// Package paypal is a small REST client for the PayPal v1 payments and v2
// checkout APIs.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"
)

// ErrNotConfigured is returned by every call when client credentials are missing.
var ErrNotConfigured = errors.New("PayPal credentials not configured")

// APIError is a non-2xx response from PayPal.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: unexpected status %d: %s", e.StatusCode, string(e.Body))
}

type Config struct {
	ClientID     string
	ClientSecret string
	Mode         string // sandbox or live
	BaseURL      string // overrides Mode when set
}

// BaseURLFor resolves the API host for cfg.
func BaseURLFor(cfg Config) string {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Mode == "live" {
		return LiveBaseURL
	}
	return SandboxBaseURL
}

// Client calls PayPal with an OAuth client-credentials token that is fetched
// lazily and reused until it expires.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a client. With empty credentials it still constructs,
// but every call fails with ErrNotConfigured.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: BaseURLFor(cfg),
		logger:  logger,
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return c
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     c.baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	base := &http.Client{Timeout: 30 * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	c.httpClient = cc.Client(ctx)
	c.httpClient.Timeout = 30 * time.Second
	return c
}

// Configured reports whether credentials were supplied.
func (c *Client) Configured() bool {
	return c.httpClient != nil
}

// CreateOrder creates a v2 checkout order.
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	var order Order
	if _, err := c.doRequest(ctx, http.MethodPost, "/v2/checkout/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreatePayment creates a v1 sale payment awaiting buyer approval.
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*Payment, error) {
	var payment Payment
	raw, err := c.doRequest(ctx, http.MethodPost, "/v1/payments/payment", req, &payment)
	if err != nil {
		return nil, err
	}
	payment.Raw = raw
	return &payment, nil
}

// ExecutePayment captures an approved v1 payment.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (*Payment, error) {
	path := "/v1/payments/payment/" + url.PathEscape(paymentID) + "/execute"
	body := map[string]string{"payer_id": payerID}

	var payment Payment
	raw, err := c.doRequest(ctx, http.MethodPost, path, body, &payment)
	if err != nil {
		return nil, err
	}
	payment.Raw = raw
	return &payment, nil
}

// doRequest sends body as JSON and decodes a 2xx response into result. The raw
// response is returned alongside for callers that forward it.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var tokenErr *oauth2.RetrieveError
		if errors.As(err, &tokenErr) && tokenErr.Response != nil {
			return nil, &APIError{StatusCode: tokenErr.Response.StatusCode, Body: asJSON(tokenErr.Body)}
		}
		return nil, fmt.Errorf("failed to call paypal: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("PayPal request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: asJSON(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return respBody, nil
}

// asJSON keeps valid JSON bodies as-is and quotes anything else.
func asJSON(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
