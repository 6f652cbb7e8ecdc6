package service

import (
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

// GenericErrorMessage is what shoppers see for any fault that does not
// carry its own user-facing text.
const GenericErrorMessage = "An error occurred. Please try again."

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrNoProduct         = errors.New("product is required")
	ErrInsufficientStock = errors.New("not enough stock available")
)

// StockError rejects an add whose quantity exceeds the stock the caller
// believed was available. Nothing is mutated when it is returned.
type StockError struct {
	ProductID domain.ProductID
	Requested int
	Available int
	InCart    bool // the product already had a line item
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock available for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

func (e *StockError) UserMessage() string {
	if e.InCart {
		return "Not enough stock available"
	}
	return "Not enough stock available. Come back another time."
}

type userFacing interface {
	UserMessage() string
}

// UserMessage returns text that is safe to show a shopper. Only errors that
// define their own message pass through; anything else degrades to
// GenericErrorMessage so raw fault details never reach the page.
func UserMessage(err error) string {
	var u userFacing
	if errors.As(err, &u) {
		return u.UserMessage()
	}
	return GenericErrorMessage
}
