package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
)

// Events streams the cart as server-sent events: the current snapshot first,
// then one "cart" event per change. A slow client only ever receives the
// latest snapshot.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}

	updates := make(chan cart.Snapshot, 1)
	unsubscribe := s.Subscribe(func(snap cart.Snapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, s.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if err := writeEvent(w, snap); err != nil {
				h.logger.Debug("sse write failed", zap.String("session_id", s.SessionID()), zap.Error(err))
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap cart.Snapshot) error {
	data, err := json.Marshal(newCartResponse(snap))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: cart\ndata: %s\n\n", snap.Version, data)
	return err
}
