package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/contracts"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type PublisherOptions struct {
	PublishEnveloped bool
	Producer         string
}

type RabbitPublisher struct {
	ch               channel
	seqRepo          SequenceRepository
	publishEnveloped bool
	producer         string
	now              func() time.Time
}

func NewRabbitPublisher(conn *amqp.Connection, seqRepo SequenceRepository, opts PublisherOptions) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newRabbitPublisher(ch, seqRepo, opts), nil
}

func newRabbitPublisher(ch channel, seqRepo SequenceRepository, opts PublisherOptions) *RabbitPublisher {
	producer := opts.Producer
	if producer == "" {
		producer = contracts.FarmCartServiceProducer
	}
	return &RabbitPublisher{
		ch:               ch,
		seqRepo:          seqRepo,
		publishEnveloped: opts.PublishEnveloped,
		producer:         producer,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishCartCheckedOut(ctx context.Context, s checkout.Summary, meta checkout.Metadata) error {
	timestamp := p.now()

	if !p.publishEnveloped {
		body, err := json.Marshal(legacyCartCheckedOut(s, timestamp))
		if err != nil {
			return fmt.Errorf("marshal FarmCartCheckedOut: %w", err)
		}
		return p.publishJSON(ctx, FarmCartCheckedOutRoutingKey, body, meta)
	}

	seq, err := p.seqRepo.NextSequence(ctx, s.SessionID)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := contracts.BuildCartCheckedOutEvent(s, contracts.EnvelopeOptions{
		PartitionKey:  s.SessionID,
		Sequence:      seq,
		Producer:      p.producer,
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		OccurredAt:    timestamp,
	})
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal FarmCartCheckedOut envelope: %w", err)
	}

	return p.publishJSON(ctx, FarmCartCheckedOutRoutingKey, body, meta)
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey string, body []byte, meta checkout.Metadata) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: meta.CorrelationID,
			Timestamp:     p.now(),
			Body:          body,
		},
	)
}

func legacyCartCheckedOut(s checkout.Summary, timestamp time.Time) FarmCartCheckedOut {
	ev := FarmCartCheckedOut{
		EventType:   EventTypeFarmCartCheckedOut,
		SessionID:   s.SessionID,
		ItemCount:   s.ItemCount,
		TotalAmount: s.Total,
		Currency:    s.Currency,
		Timestamp:   timestamp,
	}
	for _, l := range s.OrderItems {
		ev.OrderItems = append(ev.OrderItems, toItemEvent(l))
	}
	for _, l := range s.EquipmentItems {
		ev.EquipmentItems = append(ev.EquipmentItems, toItemEvent(l))
	}
	return ev
}

func toItemEvent(l checkout.Line) CartItemEvent {
	return CartItemEvent{
		ID:        l.ID,
		Kind:      string(l.Kind),
		Name:      l.Name,
		Category:  l.Category,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
	}
}

// LogPublisher stands in for RabbitMQ when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishCartCheckedOut(ctx context.Context, s checkout.Summary, meta checkout.Metadata) error {
	p.logger.Info("FarmCartCheckedOut (no broker configured)",
		zap.String("session_id", s.SessionID),
		zap.Int("order_items", len(s.OrderItems)),
		zap.Int("equipment_items", len(s.EquipmentItems)),
		zap.Int64("total", s.Total),
		zap.String("correlation_id", meta.CorrelationID),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
