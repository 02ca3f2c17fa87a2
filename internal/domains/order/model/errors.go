package model

import (
	"errors"
)

var (
	ErrMissingOrderUUID   = errors.New("order api returned no order_uuid")
	ErrMissingPayPalOrder = errors.New("order api returned no paypal_order_id")
	ErrMissingCaptureIDs  = errors.New("capture needs both order_id and order_uuid")
)
