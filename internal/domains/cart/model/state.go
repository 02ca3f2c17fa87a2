package model

import (
	"regexp"
	"strings"
)

// Effect tells the sync controller what a reducer requires next
type Effect int

const (
	// EffectNone: nothing to send
	EffectNone Effect = iota
	// EffectRecompute: send the whole cart to the price oracle
	EffectRecompute
	// EffectConfirmRemoval: quantity reached 0, the shopper must confirm
	EffectConfirmRemoval
	// EffectCleared: cart emptied, price cleared without a round trip
	EffectCleared
)

func (e Effect) String() string {
	switch e {
	case EffectRecompute:
		return "recompute"
	case EffectConfirmRemoval:
		return "confirm_removal"
	case EffectCleared:
		return "cleared"
	default:
		return "none"
	}
}

// State is the Cart Store. Cart is the optimistic local view and Confirmed
// the last cart the oracle agreed with. Reducers never mutate their input.
type State struct {
	Cart           ShoppingCart
	Confirmed      ShoppingCart
	PriceInfo      *PriceInfo
	Promo          PromoCode
	ConfirmedPromo PromoCode

	// PendingRemovals holds the quantity an item had before it was set to 0
	PendingRemovals map[string]int
}

// NewState seeds a store from a persisted snapshot. The snapshot counts as
// server confirmed.
func NewState(cart ShoppingCart, promo PromoCode, price *PriceInfo) State {
	if cart == nil {
		cart = ShoppingCart{}
	}
	return State{
		Cart:            cart.Clone(),
		Confirmed:       cart.Clone(),
		PriceInfo:       price.Clone(),
		Promo:           promo,
		ConfirmedPromo:  promo,
		PendingRemovals: map[string]int{},
	}
}

// Clone returns a deep copy
func (s State) Clone() State {
	out := State{
		Cart:            s.Cart.Clone(),
		Confirmed:       s.Confirmed.Clone(),
		PriceInfo:       s.PriceInfo.Clone(),
		Promo:           s.Promo,
		ConfirmedPromo:  s.ConfirmedPromo,
		PendingRemovals: make(map[string]int, len(s.PendingRemovals)),
	}
	for k, v := range s.PendingRemovals {
		out.PendingRemovals[k] = v
	}
	return out
}

// IsPendingRemoval reports whether the item awaits removal confirmation
func (s State) IsPendingRemoval(variationID string) bool {
	_, ok := s.PendingRemovals[variationID]
	return ok
}

// cleared is the empty-cart state: no price, no promo
func (s State) cleared() State {
	s.Cart = ShoppingCart{}
	s.Confirmed = ShoppingCart{}
	s.PriceInfo = nil
	s.Promo = PromoCode{}
	s.ConfirmedPromo = PromoCode{}
	s.PendingRemovals = map[string]int{}
	return s
}

// =====================================================
// REDUCERS
// =====================================================

// UpdateQuantity sets a line's quantity. Setting 0 never removes the item:
// the previous quantity is recorded and the shopper has to confirm.
func UpdateQuantity(s State, variationID string, qty int) (State, Effect, error) {
	if qty < 0 {
		return s, EffectNone, ErrInvalidQuantity
	}

	item, ok := s.Cart[variationID]
	if !ok {
		return s, EffectNone, ErrItemNotFound
	}
	if qty > item.Limit() {
		return s, EffectNone, ErrQuantityOverLimit
	}

	next := s.Clone()

	if qty == 0 {
		if next.IsPendingRemoval(variationID) {
			return next, EffectConfirmRemoval, nil
		}
		next.PendingRemovals[variationID] = item.Quantity
		item.Quantity = 0
		next.Cart[variationID] = item
		return next, EffectConfirmRemoval, nil
	}

	if qty == item.Quantity && !next.IsPendingRemoval(variationID) {
		return next, EffectNone, nil
	}

	delete(next.PendingRemovals, variationID)
	item.Quantity = qty
	next.Cart[variationID] = item
	return next, EffectRecompute, nil
}

// ConfirmRemoval completes a removal started by setting quantity 0
func ConfirmRemoval(s State, variationID string) (State, Effect, error) {
	if !s.IsPendingRemoval(variationID) {
		return s, EffectNone, ErrNoPendingRemoval
	}
	return RemoveItem(s, variationID)
}

// CancelRemoval restores the quantity recorded before the 0. Price is
// unchanged because the zero was never sent.
func CancelRemoval(s State, variationID string) (State, Effect, error) {
	prior, ok := s.PendingRemovals[variationID]
	if !ok {
		return s, EffectNone, ErrNoPendingRemoval
	}
	item, ok := s.Cart[variationID]
	if !ok {
		return s, EffectNone, ErrItemNotFound
	}

	next := s.Clone()
	delete(next.PendingRemovals, variationID)
	item.Quantity = prior
	next.Cart[variationID] = item
	return next, EffectNone, nil
}

// RemoveItem drops a line. Removing the last line clears price and promo.
func RemoveItem(s State, variationID string) (State, Effect, error) {
	if _, ok := s.Cart[variationID]; !ok {
		return s, EffectNone, ErrItemNotFound
	}

	next := s.Clone()
	delete(next.Cart, variationID)
	delete(next.PendingRemovals, variationID)

	if next.Cart.IsEmpty() {
		return next.cleared(), EffectCleared, nil
	}
	return next, EffectRecompute, nil
}

// AddItem adds a line or merges quantity into an existing one
func AddItem(s State, item CartItem) (State, Effect, error) {
	if item.VariationID == "" || item.Quantity <= 0 {
		return s, EffectNone, ErrInvalidItem
	}

	next := s.Clone()
	if existing, ok := next.Cart[item.VariationID]; ok {
		base := existing.Quantity
		if prior, pending := next.PendingRemovals[item.VariationID]; pending {
			base = prior
		}
		existing.Quantity = base + item.Quantity
		if existing.Quantity > existing.Limit() {
			return s, EffectNone, ErrQuantityOverLimit
		}
		delete(next.PendingRemovals, item.VariationID)
		next.Cart[item.VariationID] = existing
		return next, EffectRecompute, nil
	}

	if item.Quantity > item.Limit() {
		return s, EffectNone, ErrQuantityOverLimit
	}
	next.Cart[item.VariationID] = item.clone()
	return next, EffectRecompute, nil
}

// ReplaceCart swaps the whole cart, used by buy-now
func ReplaceCart(s State, items []CartItem) (State, Effect, error) {
	cart := make(ShoppingCart, len(items))
	for _, item := range items {
		if item.VariationID == "" || item.Quantity <= 0 {
			return s, EffectNone, ErrInvalidItem
		}
		if item.Quantity > item.Limit() {
			return s, EffectNone, ErrQuantityOverLimit
		}
		cart[item.VariationID] = item.clone()
	}

	next := s.Clone()
	next.Cart = cart
	next.PendingRemovals = map[string]int{}
	if cart.IsEmpty() {
		return next.cleared(), EffectCleared, nil
	}
	return next, EffectRecompute, nil
}

var promoCodePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// NormalizePromoCode trims and upper-cases a code
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SetPromoCode applies a code locally. The oracle decides validity on the
// next recompute; an empty code removes the promo.
func SetPromoCode(s State, code string) (State, Effect, error) {
	code = NormalizePromoCode(code)

	if code != "" {
		if len(code) < PromoCodeMinLength || len(code) > PromoCodeMaxLength || !promoCodePattern.MatchString(code) {
			return s, EffectNone, ErrInvalidPromoCode
		}
	}

	next := s.Clone()
	if code == "" {
		next.Promo = PromoCode{}
	} else {
		next.Promo = PromoCode{Code: code, Applied: true}
	}

	if next.Cart.IsEmpty() {
		return next, EffectNone, nil
	}
	return next, EffectRecompute, nil
}

// SetPriceInfo replaces the price wholesale and reconciles the cart against
// the oracle's per-product breakdown. nil clears the price.
//
// Lines awaiting removal confirmation keep their local 0.
func SetPriceInfo(s State, info *PriceInfo) (State, Effect, error) {
	next := s.Clone()

	if info == nil {
		next.PriceInfo = nil
		return next, EffectNone, nil
	}

	adjustments := make([]ProductAdjustment, 0, len(info.Products))
	for _, adj := range info.Products {
		if next.IsPendingRemoval(adj.VariationID) {
			continue
		}
		adjustments = append(adjustments, adj)
	}

	next.Cart = Reconcile(next.Cart, adjustments)
	if next.Cart.IsEmpty() {
		return next.cleared(), EffectCleared, nil
	}

	next.PriceInfo = info.Clone()
	if next.Promo.IsSet() {
		next.Promo.Valid = info.DiscountCodeValid
	}

	next.ConfirmedPromo = next.Promo
	next.Confirmed = next.Cart.Clone()
	for id, prior := range next.PendingRemovals {
		if item, ok := next.Confirmed[id]; ok {
			item.Quantity = prior
			next.Confirmed[id] = item
		}
	}

	return next, EffectNone, nil
}

// Rollback discards optimistic edits and returns to the last confirmed cart
// and promo. PriceInfo already belongs to that confirmed state.
func Rollback(s State) State {
	next := s.Clone()
	next.Cart = s.Confirmed.Clone()
	next.Promo = s.ConfirmedPromo
	next.PendingRemovals = map[string]int{}
	return next
}
