package address

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/domains/address/service"
	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/response"
)

// AutofillSource resolves the shopper's autofill from the request scope
type AutofillSource interface {
	Autofill(ctx context.Context) (*service.Autofill, error)
}

type Handler struct {
	source AutofillSource
}

func NewHandler(source AutofillSource) *Handler {
	return &Handler{source: source}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	address := rg.Group("/checkout/address")
	{
		address.POST("/input", h.Input)
		address.GET("/candidates", h.Candidates)
	}
}

// Input handles POST /checkout/address/input, sent on every postal box
// change. The lookup fires only after the debounce window settles.
func (h *Handler) Input(c *gin.Context) {
	var req model.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.Validation(apperror.CodeInvalidInput, "postal is required"))
		return
	}

	af, err := h.source.Autofill(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	af.Input(req.Postal)
	response.Success(c, http.StatusAccepted, af.Result())
}

// Candidates handles GET /checkout/address/candidates
func (h *Handler) Candidates(c *gin.Context) {
	af, err := h.source.Autofill(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, af.Result())
}
