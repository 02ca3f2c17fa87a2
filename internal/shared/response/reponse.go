package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/shared/apperror"
	"storefront-backend/internal/shared/reqctx"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	View    string      `json:"view,omitempty"`
}

type Error struct {
	Code        string      `json:"code"`
	Message     string      `json:"message"`
	Details     interface{} `json:"details,omitempty"`
	Dismissible bool        `json:"dismissible,omitempty"`
}

// Success responses
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message)
}

// FromError maps the shared error taxonomy to HTTP:
//   - validation → 422 with field details
//   - upstream   → 502, dismissible alert
//   - payment    → 402
//   - session    → 409 with the empty-cart view
func FromError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		reqctx.Logger(c.Request.Context()).Error().Err(err).Msg("unhandled error")
		InternalServerError(c, "Internal server error")
		return
	}

	body := Response{
		Success: false,
		Error: &Error{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	}
	if len(appErr.Details) > 0 {
		body.Error.Details = appErr.Details
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperror.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperror.KindUpstream:
		status = http.StatusBadGateway
		body.Error.Dismissible = true
	case apperror.KindPayment:
		status = http.StatusPaymentRequired
	case apperror.KindSession:
		status = http.StatusConflict
		if appErr.Code == apperror.CodeEmptyCart {
			body.View = "empty_cart"
		}
	}

	if status >= http.StatusInternalServerError || appErr.Kind == apperror.KindUpstream {
		reqctx.Logger(c.Request.Context()).Error().Err(err).Str("code", appErr.Code).Msg("request failed")
	}

	c.JSON(status, body)
}
