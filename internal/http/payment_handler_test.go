package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/order"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payhere"
	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/payment"
)

type fakeNotificationHandler struct {
	res *order.SettlementResult
	err error

	gotBody      string
	gotSignature string
}

func (f *fakeNotificationHandler) HandleNotification(ctx context.Context, rawBody []byte, signature string) (*order.SettlementResult, error) {
	f.gotBody = string(rawBody)
	f.gotSignature = signature
	return f.res, f.err
}

type fakePaymentStore struct {
	payment *payment.Payment
	err     error
}

func (f *fakePaymentStore) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	return f.payment, f.err
}

func claimsCtx(ctx context.Context, subject, role string) context.Context {
	return auth.ContextWithClaims(ctx, &auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	})
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestNotify_OK(t *testing.T) {
	svc := &fakeNotificationHandler{
		res: &order.SettlementResult{Applied: true, PaymentID: "pay-1", OrderID: "order-1"},
	}
	h := NewPaymentHandler(svc, &fakePaymentStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(`{"order_id":"pay-1"}`))
	req.Header.Set(payhere.SignatureHeader, "sig-value")
	rec := httptest.NewRecorder()

	h.Notify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, `{"order_id":"pay-1"}`, svc.gotBody, "the raw body must reach the verifier untouched")
	assert.Equal(t, "sig-value", svc.gotSignature)
}

func TestNotify_InvalidSignature(t *testing.T) {
	svc := &fakeNotificationHandler{err: payhere.ErrInvalidSignature}
	h := NewPaymentHandler(svc, &fakePaymentStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Notify(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "signature", "the response must not hint at the check that failed")
}

func TestNotify_UnknownPaymentAcknowledged(t *testing.T) {
	svc := &fakeNotificationHandler{err: payment.ErrNotFound}
	h := NewPaymentHandler(svc, &fakePaymentStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Notify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, rec.Body.String())
}

func TestNotify_ConflictAcknowledged(t *testing.T) {
	svc := &fakeNotificationHandler{err: order.ErrAlreadySettled}
	h := NewPaymentHandler(svc, &fakePaymentStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Notify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, rec.Body.String())
}

func TestNotify_MalformedPayload(t *testing.T) {
	svc := &fakeNotificationHandler{err: assert.AnError}
	h := NewPaymentHandler(svc, &fakePaymentStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/notify", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	h.Notify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentGet_Owner(t *testing.T) {
	store := &fakePaymentStore{payment: &payment.Payment{ID: "pay-1", CustomerID: "cust-1", Status: payment.StatusCompleted}}
	h := NewPaymentHandler(&fakeNotificationHandler{}, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/pay-1", nil)
	req = withURLParam(req, "paymentId", "pay-1")
	req = req.WithContext(claimsCtx(req.Context(), "cust-1", auth.RoleCustomer))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pay-1"`)
}

func TestPaymentGet_OtherCustomerForbidden(t *testing.T) {
	store := &fakePaymentStore{payment: &payment.Payment{ID: "pay-1", CustomerID: "cust-1"}}
	h := NewPaymentHandler(&fakeNotificationHandler{}, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/pay-1", nil)
	req = withURLParam(req, "paymentId", "pay-1")
	req = req.WithContext(claimsCtx(req.Context(), "cust-2", auth.RoleCustomer))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentGet_AdminAllowed(t *testing.T) {
	store := &fakePaymentStore{payment: &payment.Payment{ID: "pay-1", CustomerID: "cust-1"}}
	h := NewPaymentHandler(&fakeNotificationHandler{}, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/pay-1", nil)
	req = withURLParam(req, "paymentId", "pay-1")
	req = req.WithContext(claimsCtx(req.Context(), "admin-1", auth.RoleAdmin))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPaymentGet_NotFound(t *testing.T) {
	store := &fakePaymentStore{err: payment.ErrNotFound}
	h := NewPaymentHandler(&fakeNotificationHandler{}, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/missing", nil)
	req = withURLParam(req, "paymentId", "missing")
	req = req.WithContext(claimsCtx(req.Context(), "cust-1", auth.RoleCustomer))
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuccessPageEscapesOrderID(t *testing.T) {
	h := NewPaymentHandler(&fakeNotificationHandler{}, &fakePaymentStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/success?order_id=%3Cscript%3E", nil)
	rec := httptest.NewRecorder()

	h.Success(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}
