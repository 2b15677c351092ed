package httpapi

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/order"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payhere"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payment"
)

// NotificationHandler applies a verified gateway notification.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, rawBody []byte, signature string) (*order.SettlementResult, error)
}

// PaymentStore is the read side for payment lookups.
type PaymentStore interface {
	GetByID(ctx context.Context, id string) (*payment.Payment, error)
}

type PaymentHandler struct {
	svc    NotificationHandler
	store  PaymentStore
	logger zerolog.Logger
}

func NewPaymentHandler(svc NotificationHandler, store PaymentStore, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, store: store, logger: logger}
}

// Notify is the PayHere webhook. The gateway retries until it sees a 2xx, so
// conditions that will never resolve (unknown payment, conflicting outcome)
// are acknowledged and logged instead of failed.
func (h *PaymentHandler) Notify(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get(payhere.SignatureHeader)
	res, err := h.svc.HandleNotification(r.Context(), rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, payhere.ErrInvalidSignature):
			h.logger.Warn().Msg("webhook with invalid signature rejected")
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, payment.ErrNotFound):
			h.logger.Warn().Msg("webhook for unknown payment acknowledged")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		case errors.Is(err, order.ErrAlreadySettled):
			h.logger.Warn().Msg("webhook conflicts with settled payment, acknowledged")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		default:
			writeError(w, http.StatusBadRequest, "invalid notification")
		}
		return
	}

	h.logger.Info().
		Str("payment_id", res.PaymentID).
		Str("order_id", res.OrderID).
		Str("payment_status", string(res.PaymentStatus)).
		Bool("applied", res.Applied).
		Msg("payment notification processed")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	p, err := h.store.GetByID(r.Context(), chi.URLParam(r, "paymentId"))
	if err != nil {
		if errors.Is(err, payment.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load payment")
		return
	}

	if claims.Role != auth.RoleAdmin && p.CustomerID != claims.Subject {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Success and Cancel are the browser landing pages the gateway redirects to.

func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	orderID := html.EscapeString(r.URL.Query().Get("order_id"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<h1>Payment Successful</h1>
<p>Order ID: %s</p>
<p>Thank you for your purchase!</p>
<a href="/">Return to Shop</a>`, orderID)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := html.EscapeString(r.URL.Query().Get("order_id"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<h1>Payment Cancelled</h1>
<p>Order ID: %s</p>
<p>You can try again or contact support.</p>
<a href="/">Try Again</a>`, orderID)
}
