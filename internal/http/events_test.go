package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/storage"
)

type sseEvent struct {
	id    string
	event string
	data  string
}

func readEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.event != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return ev
}

func TestEventsStreamsSnapshots(t *testing.T) {
	carts := cart.NewProvider(cart.NewSnapshotRepository(storage.NewMemory()), nil)
	router := NewRouter(Deps{
		Carts:     carts,
		Checkout:  checkout.NewService(carts, &fakePublisher{}, "INR", nil),
		KeepAlive: 20 * time.Millisecond,
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/cart/s1/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)

	first := readEvent(t, sc)
	require.Equal(t, "cart", first.event)
	require.Equal(t, "0", first.id)
	require.JSONEq(t, `{"sessionId":"s1","version":0,"items":[],"itemCount":0,"total":0,"formattedTotal":"0.00"}`, first.data)

	store, err := carts.Store(ctx, "s1")
	require.NoError(t, err)
	store.AddToCart(ctx, cart.OrderItem{ID: 1, Title: "Seeds", Category: "Seeds", PricePerUnit: 100, Quantity: 2})

	// the keep-alive comments in between are skipped by readEvent
	next := readEvent(t, sc)
	require.Equal(t, "1", next.id)
	var body cartResponse
	require.NoError(t, json.Unmarshal([]byte(next.data), &body))
	require.Equal(t, 2, body.ItemCount)
	require.EqualValues(t, 200, body.Total)
}
