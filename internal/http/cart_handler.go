package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
)

const defaultKeepAlive = 15 * time.Second

type Handler struct {
	carts     *cart.Provider
	checkout  *checkout.Service
	logger    *zap.Logger
	keepAlive time.Duration
}

func NewHandler(carts *cart.Provider, checkoutSvc *checkout.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		carts:     carts,
		checkout:  checkoutSvc,
		logger:    logger,
		keepAlive: defaultKeepAlive,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  "farm-cart-service",
		"sessions": h.carts.Sessions(),
	})
}

// store resolves the session's cart, writing a 400 when the session id is
// unusable.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	s, err := h.carts.Store(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		if errors.Is(err, cart.ErrMissingSession) {
			writeError(w, http.StatusBadRequest, "missing sessionId")
			return nil, false
		}
		if errors.Is(err, cart.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "cart storage unavailable")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to open cart")
		return nil, false
	}
	return s, true
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

func (h *Handler) GetCount(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"itemCount": s.ItemCount()})
}

func (h *Handler) GetTotal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	total := s.Total()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":          total,
		"formattedTotal": cart.FormatAmount(total),
	})
}

func (h *Handler) GetOrderItems(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: cart.ToWireItems(s.OrderItems())})
}

func (h *Handler) GetEquipmentItems(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: cart.ToWireItems(s.EquipmentItems())})
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body cart.WireItem
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	item, err := cart.FromWire(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.AddToCart(r.Context(), item)
	writeJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	key, ok := parseKey(w, r)
	if !ok {
		return
	}

	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Quantity == nil {
		writeError(w, http.StatusBadRequest, "missing quantity")
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.UpdateQuantity(r.Context(), key.ID, key.Kind, *body.Quantity)
	writeJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key, ok := parseKey(w, r)
	if !ok {
		return
	}
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.RemoveFromCart(r.Context(), key.ID, key.Kind)
	writeJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, newCartResponse(s.Snapshot()))
}

func parseKey(w http.ResponseWriter, r *http.Request) (cart.Key, bool) {
	kind, err := cart.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return cart.Key{}, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return cart.Key{}, false
	}
	return cart.Key{ID: id, Kind: kind}, true
}
