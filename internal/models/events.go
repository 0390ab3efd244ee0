package models

import (
	"time"

	"github.com/google/uuid"
)

// Event names in the lifecycle catalogue.
const (
	EventOrderCreated    = "order.created"
	EventOrderUpdated    = "order.updated"
	EventPaymentRecorded = "payment.recorded"
	EventKitchenAck      = "kitchen.ack"
)

// Event is one lifecycle notification fanned out to the branch's subscriber
// groups. Audience lists the roles that should receive it.
type Event struct {
	ID        string      `json:"event_id"`
	Name      string      `json:"event"`
	BranchID  int         `json:"branch_id"`
	Audience  []Role      `json:"-"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// PaymentRecordedPayload is the payload of payment.recorded events.
type PaymentRecordedPayload struct {
	OrderID       int           `json:"order_id"`
	OrderCode     string        `json:"order_code"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Amount        float64       `json:"amount"`
}

// KitchenAckPayload is the payload of kitchen.ack events, echoed back so all
// kitchen terminals of the branch converge on who took the order.
type KitchenAckPayload struct {
	OrderID   int    `json:"order_id"`
	OrderCode string `json:"order_code"`
	UserID    int    `json:"user_id"`
}

func newEvent(name string, branchID int, audience []Role, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		BranchID:  branchID,
		Audience:  audience,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderCreatedEvent notifies the branch's kitchen and cashier of a new order.
func NewOrderCreatedEvent(order *Order) Event {
	return newEvent(EventOrderCreated, order.BranchID, []Role{RoleKitchen, RoleCashier}, order)
}

// NewOrderUpdatedEvent notifies the branch's kitchen and cashier of a status change.
func NewOrderUpdatedEvent(order *Order) Event {
	return newEvent(EventOrderUpdated, order.BranchID, []Role{RoleKitchen, RoleCashier}, order)
}

// NewPaymentRecordedEvent notifies the branch's cashiers of a settled payment.
func NewPaymentRecordedEvent(order *Order, amount float64) Event {
	return newEvent(EventPaymentRecorded, order.BranchID, []Role{RoleCashier}, PaymentRecordedPayload{
		OrderID:       order.ID,
		OrderCode:     order.Code,
		PaymentStatus: order.PaymentStatus,
		Amount:        amount,
	})
}

// NewKitchenAckEvent notifies the branch's kitchen terminals of an acknowledgement.
func NewKitchenAckEvent(order *Order, userID int) Event {
	return newEvent(EventKitchenAck, order.BranchID, []Role{RoleKitchen}, KitchenAckPayload{
		OrderID:   order.ID,
		OrderCode: order.Code,
		UserID:    userID,
	})
}
