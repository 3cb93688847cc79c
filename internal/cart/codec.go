package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

// WireItem is the JSON shape of a line item, shared by the persisted
// snapshot and the HTTP API. Fields not belonging to the item's kind are omitted.
type WireItem struct {
	ID       int64 `json:"id"`
	Kind     Kind  `json:"kind"`
	Quantity int   `json:"quantity"`

	Title        string `json:"title,omitempty"`
	Category     string `json:"category,omitempty"`
	PricePerUnit *int64 `json:"pricePerUnit,omitempty"`

	Name          string `json:"name,omitempty"`
	EquipmentType string `json:"equipmentType,omitempty"`
	PricePerDay   *int64 `json:"pricePerDay,omitempty"`
}

var ErrNotArray = errors.New("cart snapshot is not a JSON array")

func ToWire(it LineItem) WireItem {
	switch v := it.(type) {
	case OrderItem:
		price := v.PricePerUnit
		return WireItem{
			ID:           v.ID,
			Kind:         KindOrder,
			Quantity:     v.Quantity,
			Title:        v.Title,
			Category:     v.Category,
			PricePerUnit: &price,
		}
	case EquipmentItem:
		w := WireItem{
			ID:            v.ID,
			Kind:          KindEquipment,
			Quantity:      v.Quantity,
			Name:          v.Name,
			EquipmentType: v.EquipmentType,
		}
		if v.PricePerDay != nil {
			w.PricePerDay = Price(*v.PricePerDay)
		}
		return w
	default:
		panic(fmt.Sprintf("cart: unsupported line item %T", it))
	}
}

// FromWire converts a wire item into its typed variant. Quantity is copied
// as-is; callers decide how to treat values below one.
func FromWire(w WireItem) (LineItem, error) {
	switch w.Kind {
	case KindOrder:
		var price int64
		if w.PricePerUnit != nil {
			price = *w.PricePerUnit
		}
		if price < 0 {
			return nil, fmt.Errorf("order item %d: negative pricePerUnit", w.ID)
		}
		return OrderItem{
			ID:           w.ID,
			Title:        w.Title,
			Category:     w.Category,
			PricePerUnit: price,
			Quantity:     w.Quantity,
		}, nil
	case KindEquipment:
		it := EquipmentItem{
			ID:            w.ID,
			Name:          w.Name,
			EquipmentType: w.EquipmentType,
			Quantity:      w.Quantity,
		}
		if w.PricePerDay != nil {
			if *w.PricePerDay < 0 {
				return nil, fmt.Errorf("equipment item %d: negative pricePerDay", w.ID)
			}
			it.PricePerDay = Price(*w.PricePerDay)
		}
		return it, nil
	default:
		return nil, fmt.Errorf("item %d: unknown kind %q", w.ID, w.Kind)
	}
}

func ToWireItems(items []LineItem) []WireItem {
	out := make([]WireItem, 0, len(items))
	for _, it := range items {
		out = append(out, ToWire(it))
	}
	return out
}

// EncodeItems serializes a cart into its persisted JSON array form.
func EncodeItems(items []LineItem) ([]byte, error) {
	return json.Marshal(ToWireItems(items))
}

// DecodeItems parses a persisted snapshot. Anything that is not a JSON array
// is an error. Elements that cannot be represented (unknown kind, quantity
// below one, negative price, duplicate key) are dropped so that a partially
// damaged snapshot still restores what it can.
func DecodeItems(data []byte) ([]LineItem, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("parse cart snapshot: %w", err)
	}
	if raw == nil {
		// literal null
		return nil, ErrNotArray
	}

	items := make([]LineItem, 0, len(raw))
	seen := make(map[Key]struct{}, len(raw))
	for _, elem := range raw {
		var w WireItem
		if err := json.Unmarshal(elem, &w); err != nil {
			continue
		}
		if w.Quantity < 1 {
			continue
		}
		it, err := FromWire(w)
		if err != nil {
			continue
		}
		if _, dup := seen[it.Key()]; dup {
			continue
		}
		seen[it.Key()] = struct{}{}
		items = append(items, it)
	}
	return items, nil
}
