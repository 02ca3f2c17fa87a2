package model

import "storefront-backend/internal/shared/apperror"

const (
	CodeQuantityOverLimit = "QUANTITY_OVER_LIMIT"
	CodeNoPendingRemoval  = "NO_PENDING_REMOVAL"
)

var (
	ErrItemNotFound      = apperror.Validation(apperror.CodeItemNotFound, "item not found in cart")
	ErrInvalidQuantity   = apperror.Validation(apperror.CodeInvalidQuantity, "quantity must not be negative")
	ErrQuantityOverLimit = apperror.Validation(CodeQuantityOverLimit, "quantity exceeds the purchase limit")
	ErrInvalidPromoCode  = apperror.Validation(apperror.CodeInvalidPromo, "promo code is malformed")
	ErrNoPendingRemoval  = apperror.Validation(CodeNoPendingRemoval, "item is not awaiting removal confirmation")
	ErrInvalidItem       = apperror.Validation(apperror.CodeInvalidInput, "item requires a variation id and a positive quantity")
)
