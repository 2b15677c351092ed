package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jathuRSHAN/Skyup-Ecommerce/internal/auth"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Payment *PaymentHandler
}

func NewRouter(h Handlers, tokens *auth.TokenMaker, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "skyup-ecommerce",
		})
	})

	// Public: signup/login and the gateway callbacks. The webhook carries its
	// own HMAC; the landing pages are plain browser redirects.
	r.Post("/api/auth/signup", h.Auth.Signup)
	r.Post("/api/auth/login", h.Auth.Login)
	r.Post("/api/payments/notify", h.Payment.Notify)
	r.Get("/api/payments/success", h.Payment.Success)
	r.Get("/api/payments/cancel", h.Payment.Cancel)

	// Everything below requires a valid token.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/api/users/me", h.Auth.Me)

		r.Route("/api/items", func(r chi.Router) {
			r.Get("/", h.Catalog.ListItems)
			r.Get("/{id}", h.Catalog.GetItem)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Post("/", h.Catalog.CreateItem)
				r.Put("/{id}", h.Catalog.UpdateItem)
				r.Delete("/{id}", h.Catalog.DeleteItem)
			})
		})

		r.Route("/api/brands", func(r chi.Router) {
			r.Get("/", h.Catalog.ListBrands)
			r.Get("/{id}", h.Catalog.GetBrand)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Post("/", h.Catalog.CreateBrand)
				r.Put("/{id}", h.Catalog.UpdateBrand)
				r.Delete("/{id}", h.Catalog.DeleteBrand)
			})
		})

		r.Route("/api/subcategories", func(r chi.Router) {
			r.Get("/", h.Catalog.ListSubCategories)
			r.Get("/{id}", h.Catalog.GetSubCategory)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Post("/", h.Catalog.CreateSubCategory)
				r.Put("/{id}", h.Catalog.UpdateSubCategory)
				r.Delete("/{id}", h.Catalog.DeleteSubCategory)
			})
		})

		r.Route("/api/cart", func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleCustomer))
			r.Get("/", h.Cart.GetCart)
			r.Post("/", h.Cart.AddItem)
			r.Put("/{itemId}", h.Cart.SetQuantity)
			r.Delete("/{itemId}", h.Cart.RemoveOne)
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.With(auth.RequireRole(auth.RoleCustomer)).Post("/", h.Order.Create)
			r.Get("/{orderId}", h.Order.Get)
			r.Get("/customer/{customerId}", h.Order.ListByCustomer)
			r.Post("/{orderId}/cancel", h.Order.Cancel)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Get("/", h.Order.ListAll)
				r.Post("/{orderId}/done", h.Order.MarkDone)
			})
		})

		r.Get("/api/payments/{paymentId}", h.Payment.Get)
	})

	return r
}
