package cart

import (
	"github.com/shopspring/decimal"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

// Item is a catalog product together with the quantity the shopper asked for.
type Item struct {
	domproduct.Product
	Amount int64 `json:"amount"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Amount))
}

// Cart is an ordered sequence of items, unique by product id. Every method
// returns a fresh slice and leaves the receiver untouched.
type Cart []Item

func (c Cart) Index(productID int64) int {
	for i, item := range c {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Find(productID int64) (Item, bool) {
	if i := c.Index(productID); i >= 0 {
		return c[i], true
	}
	return Item{}, false
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

func (c Cart) Append(item Item) Cart {
	out := make(Cart, 0, len(c)+1)
	out = append(out, c...)
	return append(out, item)
}

// WithAmount replaces the amount of productID. The cart is returned as a copy
// even when the product is absent.
func (c Cart) WithAmount(productID, amount int64) Cart {
	out := c.Clone()
	if i := out.Index(productID); i >= 0 {
		out[i].Amount = amount
	}
	return out
}

func (c Cart) Without(productID int64) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

// Amounts maps product ids to requested quantities.
func (c Cart) Amounts() map[int64]int64 {
	out := make(map[int64]int64, len(c))
	for _, item := range c {
		out[item.ID] = item.Amount
	}
	return out
}

// Count is the number of distinct products.
func (c Cart) Count() int {
	return len(c)
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate checks the cart invariants: positive amounts and unique product ids.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, item := range c {
		if item.Amount < 1 {
			return ErrInvalidAmount
		}
		if _, ok := seen[item.ID]; ok {
			return ErrDuplicateItem
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}
