package domain

// RemoteProduct is the shop API's view of a catalog product. The storefront
// only ever holds a snapshot of it.
type RemoteProduct struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Brand       string    `json:"brand,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	Color       string    `json:"color,omitempty"`
	YearsUsed   float64   `json:"yearsUsed,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Type        string    `json:"type,omitempty"`
}

// LineItem copies the display fields of p into a cart line holding quantity.
func (p RemoteProduct) LineItem(quantity int) CartLineItem {
	return CartLineItem{
		ID:       p.ID,
		Name:     p.Name,
		Image:    p.Image,
		Price:    p.Price,
		Quantity: quantity,
	}
}
