package service

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

	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/reqctx"
)

const (
	pathCreate        = "/orders"
	pathPayPalCreate  = "/orders/paypal"
	pathPayPalCapture = "/orders/paypal/capture"

	headerIdempotencyKey = "Idempotency-Key"
	msgOrderFailed       = "We could not place your order, please try again"
)

// Client calls the Order API over HTTP
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
	}
}

var _ API = (*Client)(nil)

func (c *Client) CreateOrder(ctx context.Context, req model.CreateRequest) (*model.CreateResult, error) {
	var out model.CreateResult
	if err := c.post(ctx, pathCreate, req.IdempotencyKey, req, &out); err != nil {
		return nil, err
	}
	if out.OrderUUID == "" {
		return nil, apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed, model.ErrMissingOrderUUID)
	}
	return &out, nil
}

func (c *Client) CreatePayPalOrder(ctx context.Context, req model.CreateRequest) (*model.PayPalCreateResult, error) {
	var out model.PayPalCreateResult
	if err := c.post(ctx, pathPayPalCreate, req.IdempotencyKey, req, &out); err != nil {
		return nil, err
	}
	if out.OrderUUID == "" {
		return nil, apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed, model.ErrMissingOrderUUID)
	}
	if out.PayPalOrderID == "" {
		return nil, apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed, model.ErrMissingPayPalOrder)
	}
	return &out, nil
}

// CapturePayPalOrder refuses to call out unless both ids are present
func (c *Client) CapturePayPalOrder(ctx context.Context, req model.CaptureRequest) (*model.CaptureResult, error) {
	if req.PayPalOrderID == "" || req.OrderUUID == "" {
		return nil, model.ErrMissingCaptureIDs
	}

	var out struct {
		CaptureResponse json.RawMessage `json:"capture_response"`
	}
	if err := c.post(ctx, pathPayPalCapture, req.OrderUUID, req, &out); err != nil {
		return nil, err
	}

	result := &model.CaptureResult{Raw: out.CaptureResponse}
	if len(out.CaptureResponse) > 0 {
		var status struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(out.CaptureResponse, &status); err != nil {
			return nil, apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed,
				fmt.Errorf("failed to parse capture_response: %w", err))
		}
		result.Status = status.Status
	}
	return result, nil
}

// post sends body as JSON and decodes a 2xx response into out
func (c *Client) post(ctx context.Context, path, idempotencyKey string, body, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set(headerIdempotencyKey, idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return context.Canceled
		}
		return apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqctx.Logger(ctx).Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("order api rejected request")
		return apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed,
			fmt.Errorf("order api %s returned %d: %s", path, resp.StatusCode, truncate(respBody, 200)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperror.Upstream(apperror.CodeOrderAPIFailed, msgOrderFailed,
			fmt.Errorf("failed to unmarshal order response: %w", err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
