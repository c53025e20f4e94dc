package models

import "time"

type Cart struct {
	UserEmail string     `json:"user_email"`
	StoreID   string     `json:"store_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// CloneItems deep-copies a cart item list.
func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, it := range items {
		out[i] = CartItem{Product: it.Product.Clone(), Quantity: it.Quantity}
	}
	return out
}

// CartSummary is the cart plus the derived totals shown at checkout.
type CartSummary struct {
	Cart
	Subtotal    float64 `json:"subtotal"`
	ItemCount   int     `json:"item_count"`
	AvgEcoScore float64 `json:"avg_eco_score"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
