package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/cart"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/order"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/user"
)

func testRouter(t *testing.T) (http.Handler, *auth.TokenMaker) {
	t.Helper()
	tokens := testTokens()
	h := Handlers{
		Auth:    NewAuthHandler(&fakeUserStore{byID: &user.User{ID: "user-1", Email: "jane@example.com"}}, tokens),
		Catalog: NewCatalogHandler(&fakeCatalogStore{}),
		Cart:    NewCartHandler(&fakeCartStore{cart: &cart.Cart{ID: "cart-1"}}, &fakeItemGetter{}),
		Order: NewOrderHandler(&fakeOrderService{
			createRes: &order.CreateResult{Order: &order.Order{ID: "order-1", CustomerID: "user-1"}},
			order:     &order.Order{ID: "order-1", CustomerID: "user-1"},
		}),
		Payment: NewPaymentHandler(&fakeNotificationHandler{
			res: &order.SettlementResult{Applied: true, PaymentID: "pay-1"},
		}, &fakePaymentStore{}, zerolog.Nop()),
	}
	return NewRouter(h, tokens, zerolog.Nop()), tokens
}

func TestRouterHealthIsPublic(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterWebhookIsPublic(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/notify",
		strings.NewReader(`{"order_id":"pay-1"}`)))

	assert.Equal(t, http.StatusOK, rec.Code, "the webhook must not sit behind bearer auth")
}

func TestRouterRequiresToken(t *testing.T) {
	router, _ := testRouter(t)

	for _, target := range []string{"/api/users/me", "/api/cart", "/api/orders/order-1"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestRouterAcceptsValidToken(t *testing.T) {
	router, tokens := testRouter(t)

	token, err := tokens.Mint("user-1", "jane@example.com", auth.RoleCustomer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCartIsCustomerOnly(t *testing.T) {
	router, tokens := testRouter(t)

	token, err := tokens.Mint("admin-1", "admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterOrderCreateIsCustomerOnly(t *testing.T) {
	router, tokens := testRouter(t)

	adminToken, err := tokens.Mint("admin-1", "admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"items":[{"itemId":"item-a","quantity":1}]}`))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	customerToken, err := tokens.Mint("user-1", "jane@example.com", auth.RoleCustomer)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"items":[{"itemId":"item-a","quantity":1}]}`))
	req.Header.Set("Authorization", "Bearer "+customerToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouterOrderListIsAdminOnly(t *testing.T) {
	router, tokens := testRouter(t)

	token, err := tokens.Mint("user-1", "jane@example.com", auth.RoleCustomer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
