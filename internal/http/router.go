package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/middleware"
)

type Deps struct {
	Logger   *zap.Logger
	Carts    *cart.Provider
	Checkout *checkout.Service

	RequestTimeout   time.Duration
	CORSAllowOrigins []string
	// KeepAlive is the SSE comment interval. Zero uses the default.
	KeepAlive time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 10 * time.Second
	}

	h := NewHandler(d.Carts, d.Checkout, d.Logger)
	if d.KeepAlive > 0 {
		h.keepAlive = d.KeepAlive
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Recover(d.Logger))
	if len(d.CORSAllowOrigins) > 0 {
		r.Use(middleware.CORS(d.CORSAllowOrigins))
	}

	r.Get("/health", h.Health)

	r.Route("/api/cart/{sessionId}", func(r chi.Router) {
		// long-lived stream, kept out of the request timeout
		r.Get("/events", h.Events)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(d.RequestTimeout))

			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Get("/count", h.GetCount)
			r.Get("/total", h.GetTotal)
			r.Get("/orders", h.GetOrderItems)
			r.Get("/equipment", h.GetEquipmentItems)

			r.Post("/items", h.AddItem)
			r.Put("/items/{kind}/{id}", h.UpdateQuantity)
			r.Delete("/items/{kind}/{id}", h.RemoveItem)

			r.Get("/checkout", h.PreviewCheckout)
			r.Post("/checkout", h.Checkout)
		})
	})

	return r
}
