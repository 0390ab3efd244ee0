package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTotal(t *testing.T) {
	// Two portions of tajine at 80, one salad at 30 with a 10 extra:
	// 2*80 + 1*30 + 10 = 200.
	lines := []OrderLine{
		{MenuItemID: 1, Quantity: 2, UnitPrice: 80},
		{MenuItemID: 2, Quantity: 1, UnitPrice: 30, Modifiers: []OrderLineModifier{
			{Name: "extra cheese", ExtraPrice: 10},
		}},
	}

	assert.Equal(t, 200.0, OrderTotal(lines))
}

func TestOrderLineSubtotal(t *testing.T) {
	tests := []struct {
		name string
		line OrderLine
		want float64
	}{
		{
			name: "plain line",
			line: OrderLine{Quantity: 3, UnitPrice: 12.5},
			want: 37.5,
		},
		{
			name: "modifiers are charged once per line",
			line: OrderLine{Quantity: 2, UnitPrice: 10, Modifiers: []OrderLineModifier{
				{Name: "extra", ExtraPrice: 5},
			}},
			want: 25,
		},
		{
			name: "ad hoc modifier without catalogue reference",
			line: OrderLine{Quantity: 1, UnitPrice: 30, Modifiers: []OrderLineModifier{
				{ModifierID: nil, Name: "no onions surcharge", ExtraPrice: 2},
			}},
			want: 32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.line.Subtotal())
		})
	}
}

func TestCreateOrderRequestValidate(t *testing.T) {
	valid := CreateOrderRequest{
		BranchID: 1,
		TableID:  4,
		Lines:    []CreateOrderLine{{MenuItemID: 7, Quantity: 1}},
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateOrderRequest)
		wantErr bool
	}{
		{"valid request", func(r *CreateOrderRequest) {}, false},
		{"missing branch", func(r *CreateOrderRequest) { r.BranchID = 0 }, true},
		{"missing table", func(r *CreateOrderRequest) { r.TableID = 0 }, true},
		{"empty lines", func(r *CreateOrderRequest) { r.Lines = nil }, true},
		{"zero quantity", func(r *CreateOrderRequest) { r.Lines[0].Quantity = 0 }, true},
		{"negative quantity", func(r *CreateOrderRequest) { r.Lines[0].Quantity = -2 }, true},
		{"missing menu item", func(r *CreateOrderRequest) { r.Lines[0].MenuItemID = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Lines = append([]CreateOrderLine(nil), valid.Lines...)
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitialPaymentStatus(t *testing.T) {
	card := CreateOrderRequest{PaymentMethod: "card"}
	cash := CreateOrderRequest{PaymentMethod: "cash"}
	unset := CreateOrderRequest{}

	assert.Equal(t, PaymentPending, card.InitialPaymentStatus())
	assert.Equal(t, PaymentUnpaid, cash.InitialPaymentStatus())
	assert.Equal(t, PaymentUnpaid, unset.InitialPaymentStatus())
}

func TestRecordPaymentRequestValidate(t *testing.T) {
	assert.NoError(t, (&RecordPaymentRequest{PaymentType: "cash", Amount: 220}).Validate())
	assert.ErrorIs(t, (&RecordPaymentRequest{Amount: 10}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&RecordPaymentRequest{PaymentType: "cash"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&RecordPaymentRequest{PaymentType: "cash", Amount: -1}).Validate(), ErrValidation)
}

func TestChangeStatusRequestValidate(t *testing.T) {
	assert.NoError(t, (&ChangeStatusRequest{Status: StatusConfirmed}).Validate())
	assert.ErrorIs(t, (&ChangeStatusRequest{Status: "burning"}).Validate(), ErrValidation)
}

func TestEventConstructors(t *testing.T) {
	order := &Order{ID: 9, Code: "BR1-20260901-0042", BranchID: 3, PaymentStatus: PaymentPaid}

	created := NewOrderCreatedEvent(order)
	assert.Equal(t, EventOrderCreated, created.Name)
	assert.Equal(t, 3, created.BranchID)
	assert.ElementsMatch(t, []Role{RoleKitchen, RoleCashier}, created.Audience)
	assert.NotEmpty(t, created.ID)

	payment := NewPaymentRecordedEvent(order, 220)
	assert.Equal(t, []Role{RoleCashier}, payment.Audience)
	payload, ok := payment.Payload.(PaymentRecordedPayload)
	require.True(t, ok)
	assert.Equal(t, 9, payload.OrderID)
	assert.Equal(t, 220.0, payload.Amount)
	assert.Equal(t, PaymentPaid, payload.PaymentStatus)

	ack := NewKitchenAckEvent(order, 12)
	assert.Equal(t, []Role{RoleKitchen}, ack.Audience)
	ackPayload, ok := ack.Payload.(KitchenAckPayload)
	require.True(t, ok)
	assert.Equal(t, 12, ackPayload.UserID)
}
