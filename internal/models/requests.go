package models

import "fmt"

// CreateOrderLine is one requested line in a create-order call. Prices are
// never taken from the client; they are resolved server-side.
type CreateOrderLine struct {
	MenuItemID  int    `json:"menu_item_id"`
	VariantID   *int   `json:"variant_id,omitempty"`
	Quantity    int    `json:"quantity"`
	ModifierIDs []int  `json:"modifier_ids,omitempty"`
	Note        string `json:"note,omitempty"`
}

// CreateOrderRequest represents the request to create a new order.
type CreateOrderRequest struct {
	BranchID      int               `json:"branch_id"`
	TableID       int               `json:"table_id"`
	CustomerName  string            `json:"customer_name,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Lines         []CreateOrderLine `json:"lines"`
}

// Validate checks the request shape. Reference resolution (branch, table,
// menu items) is the store's job; only structural rules live here.
func (req *CreateOrderRequest) Validate() error {
	if req.BranchID <= 0 {
		return fmt.Errorf("%w: branch_id is required", ErrValidation)
	}
	if req.TableID <= 0 {
		return fmt.Errorf("%w: table_id is required", ErrValidation)
	}
	if len(req.CustomerName) > 100 {
		return fmt.Errorf("%w: customer_name must not exceed 100 characters", ErrValidation)
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrValidation)
	}
	if len(req.Lines) > 50 {
		return fmt.Errorf("%w: lines must not exceed 50 entries", ErrValidation)
	}
	for i, line := range req.Lines {
		if line.MenuItemID <= 0 {
			return fmt.Errorf("%w: lines[%d].menu_item_id is required", ErrValidation, i)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: lines[%d].quantity must be at least 1", ErrValidation, i)
		}
		if line.Quantity > 50 {
			return fmt.Errorf("%w: lines[%d].quantity must not exceed 50", ErrValidation, i)
		}
		if len(line.Note) > 200 {
			return fmt.Errorf("%w: lines[%d].note must not exceed 200 characters", ErrValidation, i)
		}
	}
	return nil
}

// InitialPaymentStatus returns the payment status an order starts in. Card
// orders charge upfront and start pending; everything else starts unpaid.
func (req *CreateOrderRequest) InitialPaymentStatus() PaymentStatus {
	if req.PaymentMethod == "card" {
		return PaymentPending
	}
	return PaymentUnpaid
}

// ChangeStatusRequest asks for a lifecycle transition on an order.
type ChangeStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// Validate checks the target status is a known one.
func (req *ChangeStatusRequest) Validate() error {
	switch req.Status {
	case StatusSubmitted, StatusPending, StatusConfirmed, StatusPreparing,
		StatusReady, StatusServed, StatusPaid, StatusCompleted, StatusCancelled:
		return nil
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
}

// RecordPaymentRequest records funds received against an order.
type RecordPaymentRequest struct {
	PaymentType    string  `json:"payment_type"`
	Amount         float64 `json:"amount"`
	TransactionRef *string `json:"transaction_ref,omitempty"`
}

// Validate checks the payment request shape.
func (req *RecordPaymentRequest) Validate() error {
	if req.PaymentType == "" {
		return fmt.Errorf("%w: payment_type is required", ErrValidation)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return nil
}

// AcknowledgeRequest is a kitchen terminal taking ownership of an order.
type AcknowledgeRequest struct {
	UserID int `json:"user_id"`
}

// Validate checks the acknowledging user is present.
func (req *AcknowledgeRequest) Validate() error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}

// ListOrdersFilter narrows GET /orders results.
type ListOrdersFilter struct {
	BranchID      int
	Status        OrderStatus
	PaymentStatus PaymentStatus
}
