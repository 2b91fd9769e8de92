package cart

import (
	"encoding/json"
	"fmt"
)

// Marshal serializes the cart as a JSON array of items.
func Marshal(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	return json.Marshal(c)
}

// Unmarshal decodes a snapshot written by Marshal. Undecodable data and
// snapshots that break the cart invariants yield ErrMalformedSnapshot.
func Unmarshal(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if c == nil {
		c = Cart{}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return c, nil
}
