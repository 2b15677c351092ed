package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/cart"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/catalog"
)

// CartStore is the slice of the cart repository the handlers need.
type CartStore interface {
	GetByCustomer(ctx context.Context, customerID string) (*cart.Cart, error)
	AddItem(ctx context.Context, customerID, itemID string, quantity int) error
	SetQuantity(ctx context.Context, customerID, itemID string, quantity int) error
	RemoveOne(ctx context.Context, customerID, itemID string) error
}

// ItemGetter checks that a referenced catalog item exists.
type ItemGetter interface {
	GetItem(ctx context.Context, id string) (*catalog.Item, error)
}

type CartHandler struct {
	store CartStore
	items ItemGetter
}

func NewCartHandler(store CartStore, items ItemGetter) *CartHandler {
	return &CartHandler{store: store, items: items}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	c, err := h.store.GetByCustomer(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cart not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type addItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "itemId and a positive quantity are required")
		return
	}

	if _, err := h.items.GetItem(r.Context(), req.ItemID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return
	}

	if err := h.store.AddItem(r.Context(), claims.Subject, req.ItemID, req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	c, err := h.store.GetByCustomer(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	itemID := chi.URLParam(r, "itemId")

	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	if err := h.store.SetQuantity(r.Context(), claims.Subject, itemID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "item not found in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	c, err := h.store.GetByCustomer(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveOne(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	itemID := chi.URLParam(r, "itemId")

	if err := h.store.RemoveOne(r.Context(), claims.Subject, itemID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "item not found in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	c, err := h.store.GetByCustomer(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			// Removing the last line leaves an empty cart row, but guard anyway.
			writeJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
