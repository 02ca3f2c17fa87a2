package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies failures by how they are surfaced to the shopper.
type Kind string

const (
	// KindValidation: malformed input, resolved locally, never reaches the network
	KindValidation Kind = "validation"
	// KindUpstream: non-success from the price oracle or order endpoints
	KindUpstream Kind = "upstream"
	// KindPayment: provider-reported failure or capture status not completed
	KindPayment Kind = "payment"
	// KindSession: checkout reached without a usable cart/price snapshot
	KindSession Kind = "session"
)

// =====================================================
// ERROR CODES
// =====================================================
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeInvalidPromo      = "INVALID_PROMO"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeUnknownCommand    = "UNKNOWN_COMMAND"
	CodePriceOracleFailed = "PRICE_ORACLE_FAILED"
	CodeOrderAPIFailed    = "ORDER_API_FAILED"
	CodeAddressLookup     = "ADDRESS_LOOKUP_FAILED"
	CodePaymentFailed     = "PAYMENT_FAILED"
	CodeCaptureIncomplete = "CAPTURE_NOT_COMPLETED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeEmptyCart         = "EMPTY_CART"
	CodePriceStale        = "PRICE_STALE"
	CodeAttemptNotFound   = "ATTEMPT_NOT_FOUND"

	CodePaymentAmountChanged = "PAYMENT_AMOUNT_CHANGED"
)

// Error is the shared typed error. Details carries per-field messages for
// validation failures.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so callers can compare against sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message, nil)
}

func ValidationFields(message string, details map[string]string) *Error {
	e := New(KindValidation, CodeInvalidInput, message, nil)
	e.Details = details
	return e
}

func Upstream(code, message string, err error) *Error {
	return New(KindUpstream, code, message, err)
}

func Payment(code, message string, err error) *Error {
	return New(KindPayment, code, message, err)
}

func Session(code, message string) *Error {
	return New(KindSession, code, message, nil)
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As extracts the *Error from the chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
