package cart

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domains/cart/command"
	"storefront-backend/internal/domains/cart/service"
	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/response"
)

// Handler handles HTTP requests for the cart page
type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates handler instance
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the cart endpoints under rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("", h.ExecuteCommand)
		cart.GET("/count", h.GetCount)
		cart.GET("/sync", h.GetSyncStatus)
	}
}

// ===================================
// GET /cart
// ===================================

// GetCart handles a full cart page load. The stored promo is re-validated.
// @Router /cart [get]
func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.service.LoadPage(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ===================================
// POST /cart
// ===================================

// ExecuteCommand handles every cart action, e.g.
//
//	{"action": "update_item_quantity", "variation_id": "...", "quantity": 2}
//
// @Router /cart [post]
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

	view, err := h.service.Execute(c.Request.Context(), cmd)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ===================================
// GET /cart/count
// ===================================

// GetCount returns the header badge value
// @Router /cart/count [get]
func (h *Handler) GetCount(c *gin.Context) {
	count, err := h.service.Count(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// ===================================
// GET /cart/sync
// ===================================

// GetSyncStatus returns the current view and the origins still waiting on
// the price oracle, without triggering a recompute
// @Router /cart/sync [get]
func (h *Handler) GetSyncStatus(c *gin.Context) {
	view, err := h.service.SyncStatus(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
