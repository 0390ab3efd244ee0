package models

import "time"

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	StatusSubmitted OrderStatus = "submitted"
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusPaid      OrderStatus = "paid"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus represents the settlement state of an order.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Role identifies an operational audience for lifecycle events.
type Role string

const (
	RoleKitchen Role = "kitchen"
	RoleCashier Role = "cashier"
)

// ValidRole reports whether r is a known subscriber role.
func ValidRole(r Role) bool {
	return r == RoleKitchen || r == RoleCashier
}

// Order represents one customer transaction at one table in one branch.
//
// Total is computed from the line snapshots at creation time and is never
// recomputed from current menu prices afterward.
type Order struct {
	ID            int           `json:"id" db:"id"`
	Code          string        `json:"order_code" db:"code"`
	BranchID      int           `json:"branch_id" db:"branch_id"`
	TableID       int           `json:"table_id" db:"table_id"`
	CustomerName  *string       `json:"customer_name,omitempty" db:"customer_name"`
	Total         float64       `json:"total" db:"total"`
	Status        OrderStatus   `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	Lines         []OrderLine   `json:"lines,omitempty"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// OrderLine is one ordered menu item within an order. UnitPrice and
// VariantName are snapshots taken at creation time.
type OrderLine struct {
	ID          int                 `json:"id" db:"id"`
	OrderID     int                 `json:"order_id" db:"order_id"`
	MenuItemID  int                 `json:"menu_item_id" db:"menu_item_id"`
	VariantID   *int                `json:"variant_id,omitempty" db:"variant_id"`
	VariantName *string             `json:"variant_name,omitempty" db:"variant_name"`
	Quantity    int                 `json:"quantity" db:"quantity"`
	UnitPrice   float64             `json:"unit_price" db:"unit_price"`
	Note        *string             `json:"note,omitempty" db:"note"`
	Modifiers   []OrderLineModifier `json:"modifiers,omitempty"`
}

// Subtotal returns the line's contribution to the order total.
func (l OrderLine) Subtotal() float64 {
	total := l.UnitPrice * float64(l.Quantity)
	for _, m := range l.Modifiers {
		total += m.ExtraPrice
	}
	return total
}

// OrderLineModifier is a priced add-on attached to an order line. ModifierID
// is nil for ad hoc extras that do not reference a catalogue modifier.
type OrderLineModifier struct {
	ID          int     `json:"id" db:"id"`
	OrderLineID int     `json:"order_line_id" db:"order_line_id"`
	ModifierID  *int    `json:"modifier_id,omitempty" db:"modifier_id"`
	Name        string  `json:"name" db:"name"`
	ExtraPrice  float64 `json:"extra_price" db:"extra_price"`
}

// Payment records funds received against an order.
type Payment struct {
	ID             int       `json:"id" db:"id"`
	OrderID        int       `json:"order_id" db:"order_id"`
	PaymentType    string    `json:"payment_type" db:"payment_type"`
	Amount         float64   `json:"amount" db:"amount"`
	TransactionRef *string   `json:"transaction_ref,omitempty" db:"transaction_ref"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// LinePrice is the authoritative pricing of one order line at the instant of
// order creation, as resolved against the menu inside the create transaction.
type LinePrice struct {
	UnitPrice     float64
	VariantName   *string
	ModifierTotal float64
	Modifiers     []OrderLineModifier
}

// OrderTotal computes the order total from priced lines.
func OrderTotal(lines []OrderLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
