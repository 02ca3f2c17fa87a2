package model

import (
	"errors"
	"fmt"

	"storefront-backend/internal/shared/apperror"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrAttemptNotFound      = apperror.Session(apperror.CodeAttemptNotFound, "Checkout attempt not found")
	ErrInvalidTransition    = apperror.Session(apperror.CodeInvalidTransition, "Payment is not in a state that allows this action")
	ErrCaptureNotReady      = apperror.Validation(apperror.CodeInvalidInput, "PayPal order id and order uuid are both required")
	ErrCaptureOrderMismatch = apperror.Validation(apperror.CodeInvalidInput, "PayPal order id does not belong to this checkout")
	ErrUnsupportedProvider  = errors.New("payment provider not registered")
	ErrUnsupportedOperation = errors.New("operation not supported by this payment provider")
	ErrProviderFlowMismatch = errors.New("payment provider does not implement the requested flow")
)

// NewInvalidTransitionError keeps the sentinel matchable with errors.Is
func NewInvalidTransitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// NewCaptureIncompleteError reports a capture whose status is not COMPLETED
func NewCaptureIncompleteError(status string) error {
	return apperror.Payment(
		apperror.CodeCaptureIncomplete,
		"Your PayPal payment was not completed",
		fmt.Errorf("capture status %q", status),
	)
}

// NewPaymentFailedError wraps a provider decline
func NewPaymentFailedError(reason string) error {
	return apperror.Payment(apperror.CodePaymentFailed, "Your payment could not be completed", errors.New(reason))
}
