package model

const (
	ViewCart      = "cart"
	ViewEmptyCart = "empty_cart"
)

type ItemView struct {
	CartItem
	NeedsConfirmation bool `json:"needs_confirmation"`
	Syncing           bool `json:"syncing"`
}

// View is what the cart page renders after a command
type View struct {
	View      string     `json:"view"`
	Items     []ItemView `json:"items"`
	Count     int        `json:"count"`
	PriceInfo *PriceInfo `json:"price_info"`
	Promo     PromoCode  `json:"promo"`
	// Syncing lists origins with a recompute in flight ("" = bulk edit)
	Syncing      []string `json:"syncing"`
	PromoSyncing bool     `json:"promo_syncing"`
}

// NewView renders a state. syncing holds the origins still waiting on the oracle.
func NewView(s State, syncing []string) *View {
	inFlight := make(map[string]bool, len(syncing))
	for _, origin := range syncing {
		inFlight[origin] = true
	}

	v := &View{
		View:         ViewCart,
		Count:        s.Cart.Count(),
		PriceInfo:    s.PriceInfo.Clone(),
		Promo:        s.Promo,
		Syncing:      append([]string{}, syncing...),
		PromoSyncing: inFlight[OriginPromo],
		Items:        make([]ItemView, 0, len(s.Cart)),
	}
	if s.Cart.IsEmpty() {
		v.View = ViewEmptyCart
	}

	for _, item := range s.Cart.Items() {
		v.Items = append(v.Items, ItemView{
			CartItem:          item,
			NeedsConfirmation: s.IsPendingRemoval(item.VariationID),
			Syncing:           inFlight[item.VariationID],
		})
	}
	return v
}
