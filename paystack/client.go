// Package paystack is a minimal client for the Paystack transaction API:
// initialize a checkout session and verify it by reference.
//
// Calls are made once, bounded by the client timeout. Retrying is left to
// the caller.
package paystack

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
)

const (
	StatusSuccess   = "success"
	StatusAbandoned = "abandoned"
	StatusFailed    = "failed"
)

const maxBodyBytes = 1 << 20

var ErrMissingMetadata = errors.New("paystack: transaction metadata has no order id")

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Metadata struct {
	OrderID string `json:"orderId"`
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the verify payload. Amount is in minor units.
type Transaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
}

// OrderID extracts the order id echoed back in the transaction metadata.
// Paystack returns metadata either as an object or as a JSON-encoded string.
func (t *Transaction) OrderID() (string, error) {
	raw := bytes.TrimSpace(t.Metadata)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrMissingMetadata
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingMetadata, err)
		}
		raw = []byte(encoded)
	}
	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingMetadata, err)
	}
	if md.OrderID == "" {
		return "", ErrMissingMetadata
	}
	return md.OrderID, nil
}

// APIError is a non-2xx response, or a 2xx response with status=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack API error (%d): %s", e.StatusCode, e.Message)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &auth); err != nil {
		return nil, err
	}
	if auth.AuthorizationURL == "" || auth.Reference == "" {
		return nil, errors.New("paystack: initialize response missing authorization url or reference")
	}
	return &auth, nil
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	var tx Transaction
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("paystack: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("paystack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack: failed to reach processor: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("paystack: read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("paystack: decode response: %w", decodeErr)
	}
	if !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("paystack: decode data: %w", err)
	}
	return nil
}
