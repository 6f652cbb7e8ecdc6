package checkout

import "errors"

var (
	ErrIncompleteForm    = errors.New("every buyer field is required")
	ErrIllegalTransition = errors.New("illegal transition of checkout state")
)
