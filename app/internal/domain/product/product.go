package product

import "github.com/shopspring/decimal"

// Prices travel as JSON numbers, the way the catalog and stored carts have
// always carried them. Decoding still accepts quoted prices.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
}

// Stock is the authoritative quantity available for a product. It is fetched
// on demand and never cached by the cart.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int64 `json:"amount"`
}

type ListFilter struct {
	Search string
}
