package events

import "time"

// FarmCartCheckedOut is the flat, pre-envelope message body.
type FarmCartCheckedOut struct {
	EventType      string          `json:"eventType"`
	SessionID      string          `json:"sessionId"`
	OrderItems     []CartItemEvent `json:"orderItems"`
	EquipmentItems []CartItemEvent `json:"equipmentItems"`
	ItemCount      int             `json:"itemCount"`
	TotalAmount    int64           `json:"totalAmount"`
	Currency       string          `json:"currency"`
	Timestamp      time.Time       `json:"timestamp"`
}

type CartItemEvent struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}
