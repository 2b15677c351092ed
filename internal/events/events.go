package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ItemID    string          `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderCreated struct {
	EventType   string          `json:"eventType"`
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	PaymentID   string          `json:"paymentId"`
	Items       []OrderLine     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type PaymentSettled struct {
	EventType     string    `json:"eventType"`
	PaymentID     string    `json:"paymentId"`
	OrderID       string    `json:"orderId"`
	CustomerID    string    `json:"customerId"`
	PaymentStatus string    `json:"paymentStatus"`
	OrderStatus   string    `json:"orderStatus"`
	Timestamp     time.Time `json:"timestamp"`
}
