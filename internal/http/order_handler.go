package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/order"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/user"
)

// OrderService is the slice of the order service the handlers need.
type OrderService interface {
	CreateOrder(ctx context.Context, customerID string, lines []order.RequestLine) (*order.CreateResult, error)
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error)
	Cancel(ctx context.Context, orderID string) error
	MarkDone(ctx context.Context, orderID string) error
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	Items []order.RequestLine `json:"items"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.svc.CreateOrder(r.Context(), claims.Subject, req.Items)
	if err != nil {
		var short *order.InsufficientStockError
		var invalid *order.ValidationError
		switch {
		case errors.As(err, &short):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": short.Error(),
				"items": short.Lines,
			})
		case errors.Is(err, user.ErrNotFound):
			writeError(w, http.StatusNotFound, "customer not found")
		case errors.Is(err, order.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "item not found")
		case errors.Is(err, order.ErrEmptyOrder), errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	orderID := chi.URLParam(r, "orderId")

	o, err := h.svc.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	if claims.Role != auth.RoleAdmin && o.CustomerID != claims.Subject {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	customerID := chi.URLParam(r, "customerId")

	if claims.Role != auth.RoleAdmin && claims.Subject != customerID {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	orders, err := h.svc.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	orderID := chi.URLParam(r, "orderId")

	if claims.Role != auth.RoleAdmin {
		o, err := h.svc.GetByID(r.Context(), orderID)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				writeError(w, http.StatusNotFound, "order not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load order")
			return
		}
		if o.CustomerID != claims.Subject {
			writeError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
	}

	if err := h.svc.Cancel(r.Context(), orderID); err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to cancel order")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

func (h *OrderHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	if err := h.svc.MarkDone(r.Context(), orderID); err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update order")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order completed"})
}
