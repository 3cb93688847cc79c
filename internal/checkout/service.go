package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
)

var ErrEmptyCart = errors.New("cart is empty")

// Metadata carries tracing ids from the inbound request to the published event.
type Metadata struct {
	CorrelationID string
	CausationID   string
}

type Publisher interface {
	PublishCartCheckedOut(ctx context.Context, summary Summary, meta Metadata) error
}

type Service struct {
	carts     *cart.Provider
	publisher Publisher
	currency  string
	logger    *zap.Logger
}

func NewService(carts *cart.Provider, publisher Publisher, currency string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{carts: carts, publisher: publisher, currency: currency, logger: logger}
}

// Preview prices the session's cart without changing it.
func (s *Service) Preview(ctx context.Context, sessionID string) (Summary, error) {
	store, err := s.carts.Store(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(store.Snapshot(), s.currency), nil
}

// Checkout publishes the priced cart and removes what was published. Items
// added while publishing stay in the cart. The cart is left untouched when
// publishing fails.
func (s *Service) Checkout(ctx context.Context, sessionID string, meta Metadata) (Summary, error) {
	store, err := s.carts.Store(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	snap := store.Snapshot()
	summary := Summarize(snap, s.currency)
	if summary.Empty() {
		return Summary{}, ErrEmptyCart
	}

	if err := s.publisher.PublishCartCheckedOut(ctx, summary, meta); err != nil {
		return Summary{}, fmt.Errorf("publish cart checked out: %w", err)
	}

	emptied := store.ClearCheckedOut(ctx, snap)
	s.logger.Info("cart checked out",
		zap.String("session_id", sessionID),
		zap.Int("item_count", summary.ItemCount),
		zap.Int64("total", summary.Total),
		zap.Bool("cart_emptied", emptied),
		zap.String("correlation_id", meta.CorrelationID),
	)
	return summary, nil
}
