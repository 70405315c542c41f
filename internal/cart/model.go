package cart

import "time"

// Cart belongs either to a user (UserID set) or to an anonymous session, in
// which case the cart id doubles as the session token the client keeps in a
// cookie.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Lines     []Line    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is unique per (cart, product); repeated adds increment Quantity.
type Line struct {
	ID        string `json:"id"`
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItemRequest payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
