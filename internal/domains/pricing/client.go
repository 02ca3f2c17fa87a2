// Package pricing talks to the external price oracle, the only source of
// money values for the cart.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/shared/apperror"
)

// Oracle recomputes the authoritative price of a cart
type Oracle interface {
	Recompute(ctx context.Context, req Request) (*model.PriceInfo, error)
}

// =====================================================
// HTTP CLIENT
// =====================================================

type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a price oracle client. A nil httpClient uses a default one.
func NewClient(url string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{url: url, timeout: timeout, httpClient: httpClient}
}

// Recompute posts the whole cart plus the current promo code.
// Caller cancellation is returned unwrapped (context.Canceled) so superseded
// requests can be told apart from oracle failures.
func (c *Client) Recompute(ctx context.Context, req Request) (*model.PriceInfo, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Step 1: Build body
	body, err := json.Marshal(toWire(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recompute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	// Step 2: Call oracle
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, apperror.Upstream(apperror.CodePriceOracleFailed, "Could not update prices, please try again", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.Upstream(apperror.CodePriceOracleFailed, "Could not update prices, please try again", err)
	}

	// Step 3: Check status
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Upstream(
			apperror.CodePriceOracleFailed,
			"Could not update prices, please try again",
			fmt.Errorf("price oracle returned %d: %s", resp.StatusCode, truncate(respBody, 200)),
		)
	}

	// Step 4: Parse
	var out recomputeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, apperror.Upstream(apperror.CodePriceOracleFailed, "Could not update prices, please try again",
			fmt.Errorf("failed to unmarshal price response: %w", err))
	}

	return out.toPriceInfo(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
