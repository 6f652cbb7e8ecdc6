package domain

type CheckoutState string

const (
	CheckoutStateBrowsing    CheckoutState = "BROWSING"
	CheckoutStateFormVisible CheckoutState = "CHECKOUT_FORM_VISIBLE"
	CheckoutStateSubmitting  CheckoutState = "SUBMITTING"
	CheckoutStateCompleted   CheckoutState = "COMPLETED"
	CheckoutStateFailed      CheckoutState = "FAILED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateBrowsing:    {CheckoutStateFormVisible},
	CheckoutStateFormVisible: {CheckoutStateSubmitting},
	CheckoutStateSubmitting:  {CheckoutStateCompleted, CheckoutStateFailed},
	// a failed submission leaves the form on screen, so the shopper can resubmit
	CheckoutStateFailed:    {CheckoutStateSubmitting},
	CheckoutStateCompleted: {CheckoutStateBrowsing},
}

// CanTransitionTo reports whether the checkout view may move from one state to another.
func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FormVisible reports whether the checkout form is on screen in this state.
func (s CheckoutState) FormVisible() bool {
	return s == CheckoutStateFormVisible || s == CheckoutStateSubmitting || s == CheckoutStateFailed
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
