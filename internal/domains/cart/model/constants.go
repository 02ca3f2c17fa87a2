package model

// Cart business constraints
const (
	// MaxItemsPerProduct caps a line when the product carries no purchase limit
	MaxItemsPerProduct = 100

	// Promo codes are normalized to upper case before matching
	PromoCodeMinLength = 3
	PromoCodeMaxLength = 32
)

// Sync origins: which part of the page a mutation came from
const (
	OriginPromo = "promo"
	OriginBulk  = ""
)
