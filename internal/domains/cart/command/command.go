// Package command defines the closed set of cart actions. Each variant is a
// struct; handlers implement Visitor, so a new variant fails to compile
// until every handler covers it.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/cart/model"
	"storefront-backend/internal/shared/apperror"
)

const (
	ActionRemoveCartItem     = "remove_cart_item"
	ActionUpdateItemQuantity = "update_item_quantity"
	ActionApplyPromoCode     = "apply_promo_code"
	ActionBuyNow             = "buy_now"
	ActionAddCartItem        = "add_cart_item"
	ActionCancelItemRemoval  = "cancel_item_removal"
)

// Command is one cart action
type Command interface {
	Accept(ctx context.Context, v Visitor) (*model.View, error)
	Action() string
}

// Visitor has one method per command variant
type Visitor interface {
	RemoveCartItem(ctx context.Context, cmd RemoveCartItem) (*model.View, error)
	UpdateItemQuantity(ctx context.Context, cmd UpdateItemQuantity) (*model.View, error)
	ApplyPromoCode(ctx context.Context, cmd ApplyPromoCode) (*model.View, error)
	BuyNow(ctx context.Context, cmd BuyNow) (*model.View, error)
	AddCartItem(ctx context.Context, cmd AddCartItem) (*model.View, error)
	CancelItemRemoval(ctx context.Context, cmd CancelItemRemoval) (*model.View, error)
}

// =====================================================
// VARIANTS
// =====================================================

// RemoveCartItem removes a line; on a line showing 0 it confirms the removal
type RemoveCartItem struct {
	VariationID string `json:"variation_id"`
}

type UpdateItemQuantity struct {
	VariationID string `json:"variation_id"`
	Quantity    int    `json:"quantity"`
}

type ApplyPromoCode struct {
	Code string `json:"code"`
}

// BuyNow replaces the cart with a single item
type BuyNow struct {
	Item ItemInput `json:"item"`
}

type AddCartItem struct {
	Item ItemInput `json:"item"`
}

type CancelItemRemoval struct {
	VariationID string `json:"variation_id"`
}

func (c RemoveCartItem) Accept(ctx context.Context, v Visitor) (*model.View, error) {
	return v.RemoveCartItem(ctx, c)
}
func (c UpdateItemQuantity) Accept(ctx context.Context, v Visitor) (*model.View, error) {
	return v.UpdateItemQuantity(ctx, c)
}
func (c ApplyPromoCode) Accept(ctx context.Context, v Visitor) (*model.View, error) {
	return v.ApplyPromoCode(ctx, c)
}
func (c BuyNow) Accept(ctx context.Context, v Visitor) (*model.View, error) {
	return v.BuyNow(ctx, c)
}
func (c AddCartItem) Accept(ctx context.Context, v Visitor) (*model.View, error) {
	return v.AddCartItem(ctx, c)
}
func (c CancelItemRemoval) Accept(ctx context.Context, v Visitor) (*model.View, error) {
	return v.CancelItemRemoval(ctx, c)
}

func (RemoveCartItem) Action() string     { return ActionRemoveCartItem }
func (UpdateItemQuantity) Action() string { return ActionUpdateItemQuantity }
func (ApplyPromoCode) Action() string     { return ActionApplyPromoCode }
func (BuyNow) Action() string             { return ActionBuyNow }
func (AddCartItem) Action() string        { return ActionAddCartItem }
func (CancelItemRemoval) Action() string  { return ActionCancelItemRemoval }

// ItemInput describes a product variation being put in the cart. Prices are
// display values until the oracle reconciles them.
type ItemInput struct {
	VariationID   string          `json:"variation_id"`
	ProductID     string          `json:"product_id"`
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	RetailPrice   decimal.Decimal `json:"retail_price"`
	Quantity      int             `json:"quantity"`
	PurchaseLimit int             `json:"purchase_limit"`
}

func (i ItemInput) ToCartItem(now time.Time) model.CartItem {
	return model.CartItem{
		VariationID:   strings.TrimSpace(i.VariationID),
		ProductID:     i.ProductID,
		Title:         i.Title,
		Image:         i.Image,
		SalePrice:     i.SalePrice,
		RetailPrice:   i.RetailPrice,
		Quantity:      i.Quantity,
		PurchaseLimit: i.PurchaseLimit,
		AddedTime:     now,
	}
}

// =====================================================
// DECODING
// =====================================================

type envelope struct {
	Action string `json:"action"`
}

// Decode reads {"action": "...", ...fields} into the matching variant
func Decode(raw []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "request body must be a JSON object")
	}

	var (
		cmd Command
		err error
	)
	switch env.Action {
	case ActionRemoveCartItem:
		cmd, err = decodeInto[RemoveCartItem](raw)
	case ActionUpdateItemQuantity:
		cmd, err = decodeInto[UpdateItemQuantity](raw)
	case ActionApplyPromoCode:
		cmd, err = decodeInto[ApplyPromoCode](raw)
	case ActionBuyNow:
		cmd, err = decodeInto[BuyNow](raw)
	case ActionAddCartItem:
		cmd, err = decodeInto[AddCartItem](raw)
	case ActionCancelItemRemoval:
		cmd, err = decodeInto[CancelItemRemoval](raw)
	default:
		return nil, apperror.Validation(apperror.CodeUnknownCommand, fmt.Sprintf("unknown cart action %q", env.Action))
	}
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("invalid %s payload", env.Action))
	}
	return cmd, nil
}

func decodeInto[T Command](raw []byte) (Command, error) {
	var cmd T
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
