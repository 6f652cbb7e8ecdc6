package domain

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// BuyerForm holds the fields the shopper types into the checkout form.
type BuyerForm struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Card       string `json:"card"`
	Expiration string `json:"expiration"`
	CCV        string `json:"ccv"`
}

// Complete reports whether every buyer field is non-empty.
func (f BuyerForm) Complete() bool {
	for _, v := range []string{f.Name, f.Email, f.Address, f.Card, f.Expiration, f.CCV} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Order is the submission record posted to the shop API at checkout. It is
// never persisted by the storefront.
type Order struct {
	BuyerForm
	Items Cart   `json:"items"`
	Total string `json:"total"`
}

// MarshalLogObject keeps card data out of the logs.
func (o Order) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("name", o.Name)
	enc.AddString("email", o.Email)
	enc.AddInt("items", len(o.Items))
	enc.AddString("total", o.Total)
	return nil
}
