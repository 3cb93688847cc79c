package cart

import (
	"fmt"
	"strconv"
)

type Kind string

const (
	KindOrder     Kind = "order"
	KindEquipment Kind = "equipment"
)

func (k Kind) Valid() bool {
	return k == KindOrder || k == KindEquipment
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind %q", s)
	}
	return k, nil
}

// Key identifies a line item within a cart. Ids are only unique per kind.
type Key struct {
	ID   int64
	Kind Kind
}

func (k Key) String() string {
	return string(k.Kind) + ":" + strconv.FormatInt(k.ID, 10)
}

// LineItem is implemented by OrderItem and EquipmentItem only.
type LineItem interface {
	Key() Key
	Qty() int
	UnitPrice() int64
	DisplayName() string

	withQuantity(q int) LineItem
}

// OrderItem is a bulk-order product priced per unit.
type OrderItem struct {
	ID           int64
	Title        string
	Category     string
	PricePerUnit int64
	Quantity     int
}

func (o OrderItem) Key() Key            { return Key{ID: o.ID, Kind: KindOrder} }
func (o OrderItem) Qty() int            { return o.Quantity }
func (o OrderItem) UnitPrice() int64    { return o.PricePerUnit }
func (o OrderItem) DisplayName() string { return o.Title }

func (o OrderItem) withQuantity(q int) LineItem {
	o.Quantity = q
	return o
}

// EquipmentItem is a rentable piece of equipment priced per day.
// A nil PricePerDay counts as zero.
type EquipmentItem struct {
	ID            int64
	Name          string
	EquipmentType string
	PricePerDay   *int64
	Quantity      int
}

func (e EquipmentItem) Key() Key            { return Key{ID: e.ID, Kind: KindEquipment} }
func (e EquipmentItem) Qty() int            { return e.Quantity }
func (e EquipmentItem) DisplayName() string { return e.Name }

func (e EquipmentItem) UnitPrice() int64 {
	if e.PricePerDay == nil {
		return 0
	}
	return *e.PricePerDay
}

func (e EquipmentItem) withQuantity(q int) LineItem {
	e.Quantity = q
	return e
}

// Price is a helper for building EquipmentItem literals.
func Price(v int64) *int64 {
	return &v
}

// LineTotal is quantity times unit price.
func LineTotal(it LineItem) int64 {
	return int64(it.Qty()) * it.UnitPrice()
}

// FormatAmount renders whole currency units with two decimals.
func FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}

// Snapshot is a read-only view of a cart at a point in time.
type Snapshot struct {
	SessionID string
	Version   uint64
	Items     []LineItem
	ItemCount int
	Total     int64
}

func (s Snapshot) OrderItems() []LineItem {
	return filterKind(s.Items, KindOrder)
}

func (s Snapshot) EquipmentItems() []LineItem {
	return filterKind(s.Items, KindEquipment)
}

func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

func filterKind(items []LineItem, kind Kind) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.Key().Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

func itemCount(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Qty()
	}
	return n
}

func total(items []LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += LineTotal(it)
	}
	return sum
}
