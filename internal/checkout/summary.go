package checkout

import (
	"github.com/andreasstove999/ecommerce-system/farm-cart-service-go/internal/cart"
)

// Line is one priced row of an order summary.
type Line struct {
	ID        int64     `json:"id"`
	Kind      cart.Kind `json:"kind"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
	LineTotal int64     `json:"lineTotal"`
}

type Summary struct {
	SessionID      string `json:"sessionId"`
	Currency       string `json:"currency"`
	OrderItems     []Line `json:"orderItems"`
	EquipmentItems []Line `json:"equipmentItems"`
	ItemCount      int    `json:"itemCount"`
	Total          int64  `json:"total"`
	FormattedTotal string `json:"formattedTotal"`
}

func (s Summary) Empty() bool {
	return len(s.OrderItems) == 0 && len(s.EquipmentItems) == 0
}

// Summarize prices a cart snapshot. Equipment day rates are summed into the
// same total as order items, matching cart.Store.Total.
func Summarize(snap cart.Snapshot, currency string) Summary {
	return Summary{
		SessionID:      snap.SessionID,
		Currency:       currency,
		OrderItems:     toLines(snap.OrderItems()),
		EquipmentItems: toLines(snap.EquipmentItems()),
		ItemCount:      snap.ItemCount,
		Total:          snap.Total,
		FormattedTotal: cart.FormatAmount(snap.Total),
	}
}

func toLines(items []cart.LineItem) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		l := Line{
			ID:        it.Key().ID,
			Kind:      it.Key().Kind,
			Name:      it.DisplayName(),
			Quantity:  it.Qty(),
			UnitPrice: it.UnitPrice(),
			LineTotal: cart.LineTotal(it),
		}
		switch v := it.(type) {
		case cart.OrderItem:
			l.Category = v.Category
		case cart.EquipmentItem:
			l.Category = v.EquipmentType
		}
		out = append(out, l)
	}
	return out
}
