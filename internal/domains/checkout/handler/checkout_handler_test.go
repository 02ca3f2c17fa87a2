package checkout_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/checkout/command"
	checkout "storefront-backend/internal/domains/checkout/handler"
	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/domains/checkout/service"
	paymentmodel "storefront-backend/internal/domains/payment/model"
	"storefront-backend/internal/shared/apperror"
)

const attempt = "8a4f2d0e-3c1b-4e8f-9a7d-2b6c5e1f0a93"

type stubService struct {
	executed []string
	err      error
	returned []string
}

func (s *stubService) Execute(_ context.Context, cmd command.Command) (*model.Result, error) {
	s.executed = append(s.executed, cmd.Action())
	if s.err != nil {
		return nil, s.err
	}
	return &model.Result{State: paymentmodel.StateSucceeded, OrderUUID: "order-1", Completed: true}, nil
}

func (s *stubService) PaymentIntent(context.Context) (*model.PaymentIntent, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.PaymentIntent{ClientSecret: "pi_1_secret_x", IntentID: "pi_1", Amount: decimal.NewFromInt(15), Currency: "GBP"}, nil
}

func (s *stubService) ResolveReturn(_ context.Context, orderUUID, intentID string) (*model.Result, error) {
	s.returned = append(s.returned, orderUUID+"/"+intentID)
	if s.err != nil {
		return nil, s.err
	}
	return &model.Result{State: paymentmodel.StateSucceeded, OrderUUID: orderUUID, Completed: true}, nil
}

var _ service.ServiceInterface = (*stubService)(nil)

func setupRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	checkout.NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestExecuteDefaultsToCardPayment(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w, body := do(r, http.MethodPost, "/api/v1/checkout", `{"attempt_id":"`+attempt+`","payment_secret":"pi_1_secret_x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{command.ActionStripeCreateOrder}, svc.executed)
}

func TestExecuteRequiresBody(t *testing.T) {
	r := setupRouter(&stubService{})

	w, body := do(r, http.MethodPost, "/api/v1/checkout", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestExecuteUnknownAction(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w, body := do(r, http.MethodPost, "/api/v1/checkout", `{"action":"cash","attempt_id":"`+attempt+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, apperror.CodeUnknownCommand, errBody["code"])
	assert.Empty(t, svc.executed)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		view   string
	}{
		{"empty cart", service.ErrEmptyCart, http.StatusConflict, "empty_cart"},
		{"stale price", service.ErrPriceStale, http.StatusConflict, ""},
		{"capture incomplete", paymentmodel.NewCaptureIncompleteError("PENDING"), http.StatusPaymentRequired, ""},
		{"order api down", apperror.Upstream(apperror.CodeOrderAPIFailed, "Order service unavailable", nil), http.StatusBadGateway, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(&stubService{err: tt.err})

			w, body := do(r, http.MethodPost, "/api/v1/checkout",
				`{"action":"paypal_capture_payment","attempt_id":"`+attempt+`","paypal_order_id":"PP-1"}`)
			assert.Equal(t, tt.status, w.Code)
			if tt.view != "" {
				assert.Equal(t, tt.view, body["view"])
			}
		})
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	r := setupRouter(&stubService{})

	w, body := do(r, http.MethodPost, "/api/v1/checkout/payment-intent", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pi_1_secret_x", data["client_secret"])
	assert.Equal(t, "GBP", data["currency"])
}

func TestHandleReturnReadsProviderQuery(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w, _ := do(r, http.MethodGet, "/api/v1/checkout/return?order_uuid=order-1&payment_intent=pi_1&payment_intent_client_secret=pi_1_secret_x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"order-1/pi_1"}, svc.returned)
}
