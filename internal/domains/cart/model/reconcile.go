package model

// Reconcile merges the oracle's per-product verdicts into the local cart and
// returns a new cart. The input is never modified.
//
// For every adjustment whose variation is in the cart the oracle wins:
// SalePrice, DiscountReason and Quantity are overwritten, and a quantity of 0
// drops the line. Lines the oracle did not mention are kept as they are and
// adjustments for unknown variations are ignored, so the oracle can shrink
// the cart but never grow it.
func Reconcile(cart ShoppingCart, adjustments []ProductAdjustment) ShoppingCart {
	out := cart.Clone()

	for _, adj := range adjustments {
		item, ok := out[adj.VariationID]
		if !ok {
			continue
		}

		if adj.Quantity <= 0 {
			delete(out, adj.VariationID)
			continue
		}

		item.SalePrice = adj.AdjustedPrice
		item.Quantity = adj.Quantity
		item.DiscountReason = nil
		if adj.DiscountReason != nil {
			reason := *adj.DiscountReason
			item.DiscountReason = &reason
		}
		out[adj.VariationID] = item
	}

	return out
}
