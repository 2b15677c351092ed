package order

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payhere"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payment"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/user"
)

var ErrEmptyOrder = errors.New("order has no items")

// Store is the transactional order/payment storage the service drives.
// *Repository is the production implementation.
type Store interface {
	Create(ctx context.Context, customerID, currency string, lines []RequestLine) (*Order, *payment.Payment, error)
	ApplyPaymentNotification(ctx context.Context, paymentID string, succeeded bool, paidAmount decimal.Decimal) (*SettlementResult, error)
	Cancel(ctx context.Context, orderID string) error
	MarkDone(ctx context.Context, orderID string) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
}

// Publisher emits domain events after state changes. Publishing is best
// effort; a broker outage never fails the request.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishPaymentSettled(ctx context.Context, res *SettlementResult) error
}

// UserStore resolves the customer profile for gateway contact fields.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Service ties order storage, the payment gateway adapter and event
// publishing together.
type Service struct {
	store     Store
	users     UserStore
	gateway   *payhere.Gateway
	publisher Publisher
	logger    zerolog.Logger
}

func NewService(store Store, users UserStore, gateway *payhere.Gateway, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		users:     users,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateResult is what order creation hands back: the persisted records plus
// the signed gateway redirect.
type CreateResult struct {
	Order    *Order           `json:"order"`
	Checkout payhere.Checkout `json:"checkout"`
}

// CreateOrder resolves the customer, validates the request,
// atomically decrements stock and persists the order with its Pending payment,
// then builds the gateway redirect.
func (s *Service) CreateOrder(ctx context.Context, customerID string, reqLines []RequestLine) (*CreateResult, error) {
	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	lines, err := normalizeLines(reqLines)
	if err != nil {
		return nil, err
	}

	o, p, err := s.store.Create(ctx, customerID, s.gateway.Currency(), lines)
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(customer.Name)
	checkout := s.gateway.BuildCheckout(payhere.CheckoutParams{
		PaymentID: p.ID,
		OrderID:   o.ID,
		Items:     itemsDescription(o.Lines),
		Amount:    o.TotalAmount,
		FirstName: firstName,
		LastName:  lastName,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Address.Street,
		City:      customer.Address.City,
		Country:   "Sri Lanka",
	})

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, o); err != nil {
			s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("publish OrderCreated failed")
		}
	}

	return &CreateResult{Order: o, Checkout: checkout}, nil
}

// HandleNotification settles a payment from a gateway webhook. The signature
// is verified over the raw body before anything is read or written.
func (s *Service) HandleNotification(ctx context.Context, rawBody []byte, signature string) (*SettlementResult, error) {
	if !s.gateway.VerifySignature(rawBody, signature) {
		return nil, payhere.ErrInvalidSignature
	}

	n, err := payhere.ParseNotification(rawBody)
	if err != nil {
		return nil, err
	}

	res, err := s.store.ApplyPaymentNotification(ctx, n.OrderID, n.Succeeded(), n.Amount)
	if err != nil {
		return nil, err
	}

	if res.Applied && s.publisher != nil {
		if err := s.publisher.PublishPaymentSettled(ctx, res); err != nil {
			s.logger.Warn().Err(err).Str("payment_id", res.PaymentID).Msg("publish PaymentSettled failed")
		}
	}
	return res, nil
}

func (s *Service) Cancel(ctx context.Context, orderID string) error {
	return s.store.Cancel(ctx, orderID)
}

func (s *Service) MarkDone(ctx context.Context, orderID string) error {
	return s.store.MarkDone(ctx, orderID)
}

func (s *Service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return s.store.GetByID(ctx, orderID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// normalizeLines rejects empty or non-positive requests and merges duplicate
// item ids so the storage layer sees each item once.
func normalizeLines(reqLines []RequestLine) ([]RequestLine, error) {
	if len(reqLines) == 0 {
		return nil, ErrEmptyOrder
	}

	byItem := make(map[string]int, len(reqLines))
	ordered := make([]string, 0, len(reqLines))
	for _, l := range reqLines {
		if l.ItemID == "" {
			return nil, validationf("itemId is required")
		}
		if l.Quantity <= 0 {
			return nil, validationf("quantity for item %q must be positive", l.ItemID)
		}
		if _, seen := byItem[l.ItemID]; !seen {
			ordered = append(ordered, l.ItemID)
		}
		byItem[l.ItemID] += l.Quantity
	}

	out := make([]RequestLine, 0, len(ordered))
	for _, id := range ordered {
		out = append(out, RequestLine{ItemID: id, Quantity: byItem[id]})
	}
	return out, nil
}

func itemsDescription(lines []Line) string {
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

func splitName(full string) (first, last string) {
	first, last, found := strings.Cut(strings.TrimSpace(full), " ")
	if !found {
		return first, ""
	}
	return first, last
}
