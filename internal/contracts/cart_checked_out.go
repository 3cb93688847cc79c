package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/checkout"
)

const (
	CartCheckedOutEventName           = "FarmCartCheckedOut"
	CartCheckedOutEventVersion        = 1
	CartCheckedOutEnvelopedSchemaPath = "contracts/events/farmcart/FarmCartCheckedOut.v1.enveloped.schema.json"
	FarmCartServiceProducer           = "farm-cart-service"
)

type EventEnvelope struct {
	EventName     string                `json:"eventName"`
	EventVersion  int                   `json:"eventVersion"`
	EventID       string                `json:"eventId"`
	CorrelationID string                `json:"correlationId,omitempty"`
	CausationID   string                `json:"causationId,omitempty"`
	Producer      string                `json:"producer"`
	PartitionKey  string                `json:"partitionKey"`
	Sequence      int64                 `json:"sequence"`
	OccurredAt    time.Time             `json:"occurredAt"`
	Schema        string                `json:"schema"`
	Payload       CartCheckedOutPayload `json:"payload"`
}

type CartCheckedOutPayload struct {
	SessionID      string               `json:"sessionId"`
	OrderItems     []CartCheckedOutItem `json:"orderItems"`
	EquipmentItems []CartCheckedOutItem `json:"equipmentItems"`
	ItemCount      int                  `json:"itemCount"`
	TotalAmount    int64                `json:"totalAmount"`
	Currency       string               `json:"currency"`
	Timestamp      time.Time            `json:"timestamp"`
}

type CartCheckedOutItem struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type EnvelopeOptions struct {
	PartitionKey  string
	Sequence      int64
	Producer      string
	SchemaPath    string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

// NewCartCheckedOutPayload copies a checkout summary into its wire payload.
func NewCartCheckedOutPayload(s checkout.Summary, occurredAt time.Time) CartCheckedOutPayload {
	return CartCheckedOutPayload{
		SessionID:      s.SessionID,
		OrderItems:     toItems(s.OrderItems),
		EquipmentItems: toItems(s.EquipmentItems),
		ItemCount:      s.ItemCount,
		TotalAmount:    s.Total,
		Currency:       s.Currency,
		Timestamp:      occurredAt,
	}
}

func BuildCartCheckedOutEvent(s checkout.Summary, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	schemaPath := opts.SchemaPath
	if schemaPath == "" {
		schemaPath = CartCheckedOutEnvelopedSchemaPath
	}

	producer := opts.Producer
	if producer == "" {
		producer = FarmCartServiceProducer
	}

	partitionKey := opts.PartitionKey
	if partitionKey == "" {
		partitionKey = s.SessionID
	}

	return EventEnvelope{
		EventName:     CartCheckedOutEventName,
		EventVersion:  CartCheckedOutEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  partitionKey,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schemaPath,
		Payload:       NewCartCheckedOutPayload(s, occurredAt),
	}
}

func toItems(lines []checkout.Line) []CartCheckedOutItem {
	out := make([]CartCheckedOutItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartCheckedOutItem{
			ID:        l.ID,
			Kind:      string(l.Kind),
			Name:      l.Name,
			Category:  l.Category,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}
