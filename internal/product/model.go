package product

import "time"

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// We store price as a string to avoid rounding errors (NUMERIC in Postgres)
	Price           string    `json:"price"`
	StockQuantity   int       `json:"stock_quantity"`
	SellerID        string    `json:"seller_id,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	StripeProductID string    `json:"stripe_product_id,omitempty"`
	StripePriceID   string    `json:"stripe_price_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListResponse represents the paginated response of products.
type ListResponse struct {
	Q      string    `json:"q,omitempty"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Product `json:"items"`
}

// CreateProductRequest payload of creation.
type CreateProductRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	StockQuantity   int    `json:"stock_quantity"`
	ImageURL        string `json:"image_url"`
	StripeProductID string `json:"stripe_product_id"`
	StripePriceID   string `json:"stripe_price_id"`
}

// UpdateProductRequest payload of partial update. StockQuantity is a pointer
// so an omitted field is distinguishable from an explicit 0.
type UpdateProductRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	StockQuantity *int   `json:"stock_quantity"`
	ImageURL      string `json:"image_url"`
}
