package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
)

type cartResponse struct {
	SessionID      string          `json:"sessionId"`
	Version        uint64          `json:"version"`
	Items          []cart.WireItem `json:"items"`
	ItemCount      int             `json:"itemCount"`
	Total          int64           `json:"total"`
	FormattedTotal string          `json:"formattedTotal"`
}

func newCartResponse(s cart.Snapshot) cartResponse {
	return cartResponse{
		SessionID:      s.SessionID,
		Version:        s.Version,
		Items:          cart.ToWireItems(s.Items),
		ItemCount:      s.ItemCount,
		Total:          s.Total,
		FormattedTotal: cart.FormatAmount(s.Total),
	}
}

type itemsResponse struct {
	Items []cart.WireItem `json:"items"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
