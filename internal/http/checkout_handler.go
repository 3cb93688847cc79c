package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/middleware"
)

type checkoutResponse struct {
	Status  string           `json:"status"`
	Summary checkout.Summary `json:"summary"`
}

func (h *Handler) PreviewCheckout(w http.ResponseWriter, r *http.Request) {
	summary, err := h.checkout.Preview(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	meta := checkout.Metadata{
		CorrelationID: middleware.GetCorrelationID(r.Context()),
		CausationID:   middleware.GetCausationID(r.Context()),
	}

	summary, err := h.checkout.Checkout(r.Context(), chi.URLParam(r, "sessionId"), meta)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Status:  "checkout completed",
		Summary: summary,
	})
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrMissingSession):
		writeError(w, http.StatusBadRequest, "missing sessionId")
	case errors.Is(err, cart.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "cart storage unavailable")
	default:
		h.logger.Error("checkout failed",
			zap.String("session_id", chi.URLParam(r, "sessionId")),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to publish cart checked out event")
	}
}
