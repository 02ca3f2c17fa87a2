package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domains/checkout/command"
	"storefront-backend/internal/domains/checkout/service"
	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/response"
)

// Handler handles HTTP requests for the checkout page
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the checkout endpoints under rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	checkout := rg.Group("/checkout")
	{
		checkout.POST("", h.ExecuteCommand)
		checkout.POST("/payment-intent", h.CreatePaymentIntent)
		checkout.GET("/return", h.HandleReturn)
	}
}

// ===================================
// POST /checkout
// ===================================

// ExecuteCommand handles every checkout action, e.g.
//
//	{"action": "paypal_capture_payment", "attempt_id": "...", "paypal_order_id": "..."}
//
// A body without an action is a card payment (stripe_create_order).
// @Router /checkout [post]
func (h *Handler) ExecuteCommand(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		response.FromError(c, apperror.Validation(apperror.CodeInvalidInput, "request body is required"))
		return
	}

	cmd, err := command.Decode(raw)
	if err != nil {
		response.FromError(c, err)
		return
	}

	result, err := h.service.Execute(c.Request.Context(), cmd)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ===================================
// POST /checkout/payment-intent
// ===================================

// CreatePaymentIntent returns the client secret for the card form
// @Router /checkout/payment-intent [post]
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	intent, err := h.service.PaymentIntent(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, intent)
}

// ===================================
// GET /checkout/return
// ===================================

// HandleReturn is where the card provider sends the shopper back after an
// extra authentication step
// @Router /checkout/return [get]
func (h *Handler) HandleReturn(c *gin.Context) {
	orderUUID := c.Query("order_uuid")
	intentID := c.Query("payment_intent")

	result, err := h.service.ResolveReturn(c.Request.Context(), orderUUID, intentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
