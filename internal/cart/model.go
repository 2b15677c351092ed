package cart

import "time"

type Line struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Cart is the per-customer shopping cart. There is at most one per customer.
type Cart struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Lines      []Line    `json:"items"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
