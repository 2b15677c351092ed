package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestLine is what the customer asks for; unit prices are never taken
// from the client.
type RequestLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Line is an order line with the unit price snapshotted at creation time.
type Line struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customerId"`
	Lines       []Line          `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	PaymentID   string          `json:"paymentId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
