// Package payhere builds PayHere checkout redirects and validates the
// asynchronous payment notifications the gateway posts back.
package payhere

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// SignatureHeader carries the webhook HMAC on inbound notifications.
const SignatureHeader = "x-payhere-signature"

// StatusSuccess is the payment_status code PayHere sends for a settled payment.
const StatusSuccess = "2"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Config is injected at startup; the merchant secret never leaves this package.
type Config struct {
	MerchantID     string
	MerchantSecret string
	CheckoutURL    string
	ReturnURL      string
	CancelURL      string
	NotifyURL      string
	Currency       string
}

type Gateway struct {
	cfg Config
}

func New(cfg Config) *Gateway {
	return &Gateway{cfg: cfg}
}

func (g *Gateway) Currency() string { return g.cfg.Currency }

// CheckoutParams is everything order creation knows that the gateway needs.
type CheckoutParams struct {
	PaymentID string // becomes the gateway's order_id, echoed back by the webhook
	OrderID   string
	Items     string
	Amount    decimal.Decimal
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	City      string
	Country   string
}

// Checkout is the redirect descriptor handed back to the caller. The order
// stays New and the payment Pending until the webhook resolves them.
type Checkout struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// BuildCheckout assembles the signed redirect. The amount is always
// formatted to two decimals; the hash must stay bit-compatible with the
// gateway's verification.
func (g *Gateway) BuildCheckout(p CheckoutParams) Checkout {
	amount := p.Amount.StringFixed(2)

	fields := map[string]string{
		"merchant_id": g.cfg.MerchantID,
		"return_url":  g.cfg.ReturnURL,
		"cancel_url":  g.cfg.CancelURL,
		"notify_url":  g.cfg.NotifyURL,
		"order_id":    p.PaymentID,
		"items":       p.Items,
		"amount":      amount,
		"currency":    g.cfg.Currency,
		"first_name":  p.FirstName,
		"last_name":   p.LastName,
		"email":       p.Email,
		"phone":       p.Phone,
		"address":     p.Address,
		"city":        p.City,
		"country":     p.Country,
		"custom_1":    p.OrderID,
		"hash":        g.checkoutHash(p.PaymentID, amount),
	}

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}

	return Checkout{
		URL:    g.cfg.CheckoutURL + "?" + values.Encode(),
		Fields: fields,
	}
}

// checkoutHash is upperHex(MD5(secret || order_id || amount || currency)).
func (g *Gateway) checkoutHash(orderID, amount string) string {
	sum := md5.Sum([]byte(g.cfg.MerchantSecret + orderID + amount + g.cfg.Currency))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifySignature checks the webhook HMAC over the raw body. It must run
// before the body is parsed or any record is touched.
func (g *Gateway) VerifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.cfg.MerchantSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Notification is the webhook payload. order_id is the payment id we handed
// to the gateway at checkout time.
type Notification struct {
	OrderID       string          `json:"order_id"`
	PaymentStatus string          `json:"payment_status"`
	Amount        decimal.Decimal `json:"payhere_amount"`
}

func (n Notification) Succeeded() bool {
	return n.PaymentStatus == StatusSuccess
}

func ParseNotification(rawBody []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if n.OrderID == "" {
		return Notification{}, errors.New("notification missing order_id")
	}
	return n, nil
}
