package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/shared/apperror"
)

// Lookup resolves a postal code into address candidates
type Lookup interface {
	Lookup(ctx context.Context, postal string) ([]model.Candidate, error)
}

// Client calls the external address lookup. Concurrent lookups for the same
// postal code share one request.
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	group      singleflight.Group
}

func NewClient(url string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{url: url, timeout: timeout, httpClient: httpClient}
}

// Lookup joins any running lookup for the same postal code. The shared call
// is detached from the first caller's cancellation and bounded by the
// client timeout; each caller stops waiting when its own ctx is done.
func (c *Client) Lookup(ctx context.Context, postal string) ([]model.Candidate, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(postal, func() (interface{}, error) {
		return c.do(shared, postal)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// callers must not share the slice
		return append([]model.Candidate(nil), res.Val.([]model.Candidate)...), nil
	}
}

func (c *Client) do(ctx context.Context, postal string) ([]model.Candidate, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]string{"postal": postal})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Upstream(apperror.CodeAddressLookup, "Address lookup is unavailable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.Upstream(apperror.CodeAddressLookup, "Address lookup is unavailable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Upstream(apperror.CodeAddressLookup, "Address lookup is unavailable",
			fmt.Errorf("address lookup returned %d", resp.StatusCode))
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, apperror.Upstream(apperror.CodeAddressLookup, "Address lookup is unavailable",
			fmt.Errorf("failed to unmarshal candidates: %w", err))
	}
	return candidates, nil
}
