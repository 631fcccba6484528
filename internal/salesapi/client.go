// Package salesapi is an HTTP client for a remote sales authority. When the
// terminal is configured with one, finished sales are submitted there instead
// of being recorded locally.
package salesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"swiftpos/backend/internal/domain"
)

// ErrStockRejected marks a submission the authority refused for stock
// reasons. Transport failures and other server errors do not wrap it.
var ErrStockRejected = errors.New("sale rejected for insufficient stock")

// ErrUnauthorized marks a submission the authority refused for missing or
// invalid credentials. It signals a terminal misconfiguration, not a
// transient transport failure.
var ErrUnauthorized = errors.New("sales authority rejected credentials")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the authority at baseURL. The token is sent as a
// bearer credential on every submission; pass an empty string when the
// authority does not require one.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) SubmitSale(ctx context.Context, req domain.SaleRequest) (*domain.Sale, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sales", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit sale: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("submit sale: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var sale domain.Sale
		if err := json.Unmarshal(body, &sale); err != nil {
			return nil, fmt.Errorf("submit sale: decode response: %w", err)
		}
		return &sale, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, er.Error)
		}
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusConflict:
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrStockRejected, er.Error)
		}
		return nil, ErrStockRejected
	default:
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			return nil, fmt.Errorf("submit sale: status %d: %s", resp.StatusCode, er.Error)
		}
		return nil, fmt.Errorf("submit sale: unexpected status %d", resp.StatusCode)
	}
}
