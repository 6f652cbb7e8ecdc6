package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductID is the opaque product identifier used as the cart merge key.
// The shop API hands out numeric and string ids; numeric ids are written
// back as JSON numbers so update calls echo the id in the shape the shop API sent.
type ProductID string

func (id ProductID) String() string {
	return string(id)
}

func (id ProductID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("product id is empty")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or a number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// CartLineItem is one product the shopper intends to buy. Name, image and
// price are copied when the item is first added and never re-fetched.
type CartLineItem struct {
	ID       ProductID `json:"id"`
	Name     string    `json:"name"`
	Image    string    `json:"image"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
}

// Cart is the ordered list of line items, in insertion order.
type Cart []CartLineItem

// Find returns the index of the line item for id, or -1.
func (c Cart) Find(id ProductID) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
