package address_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	address "storefront-backend/internal/domains/address/handler"
	"storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/domains/address/service"
)

type nopLookup struct{}

func (nopLookup) Lookup(context.Context, string) ([]model.Candidate, error) { return nil, nil }

type staticSource struct{ af *service.Autofill }

func (s staticSource) Autofill(context.Context) (*service.Autofill, error) { return s.af, nil }

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	af := service.NewAutofill(nopLookup{}, service.AutofillConfig{
		Debounce: time.Hour,
		// the debounce window never closes in these tests
		Schedule: func(time.Duration, func()) func() bool { return func() bool { return true } },
	})
	t.Cleanup(af.Stop)

	r := gin.New()
	address.NewHandler(staticSource{af: af}).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestInputStartsDebounce(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/address/input", strings.NewReader(`{"postal":"sw1a 1aa"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var body struct {
		Data model.AutofillResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Pending)
	assert.Empty(t, body.Data.Candidates)
}

func TestInputRejectsMalformedBody(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/address/input", strings.NewReader(`{"postal":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCandidatesBeforeAnyInput(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/address/candidates", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"value":"","candidates":[],"pending":false}}`, w.Body.String())
}
