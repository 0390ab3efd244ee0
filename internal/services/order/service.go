package order

import (
	"context"
	"fmt"

	"restaurant-pos/internal/lifecycle"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// OrderStore is the persistence surface the service orchestrates.
type OrderStore interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int) (*models.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.ListOrdersFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID int, from, to models.OrderStatus) (bool, error)
	RecordPayment(ctx context.Context, order *models.Order, req *models.RecordPaymentRequest, newStatus models.OrderStatus) (bool, error)
}

// EventSink receives lifecycle events after the triggering operation has
// committed. Implementations must not block and must not fail the caller.
type EventSink interface {
	Emit(event models.Event)
}

// Service composes the store, the status machine and the event fan-out into
// the public order lifecycle operations. Events are emitted strictly after
// commit; emission problems are the sink's to log, never the caller's.
type Service struct {
	store  OrderStore
	events EventSink
	logger *logger.Logger
}

// NewService creates the order service.
func NewService(store OrderStore, events EventSink, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		logger: log,
	}
}

// CreateOrder validates and persists a new order, then announces it to the
// branch's kitchen and cashier groups.
func (s *Service) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, requestID string) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.store.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_created", fmt.Sprintf("Created order %s", order.Code), requestID, map[string]interface{}{
		"order_id":  order.ID,
		"branch_id": order.BranchID,
		"total":     order.Total,
	})

	s.events.Emit(models.NewOrderCreatedEvent(order))
	return order, nil
}

// ChangeStatus applies one lifecycle transition. The transition is validated
// against the loaded status and written compare-and-swap against that same
// status, so two concurrent operators cannot both win.
func (s *Service) ChangeStatus(ctx context.Context, orderID int, target models.OrderStatus, requestID string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := lifecycle.Transition(order.Status, target); err != nil {
		return nil, err
	}

	applied, err := s.store.UpdateStatus(ctx, order.ID, order.Status, target)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: order %d changed concurrently", models.ErrIllegalTransition, order.ID)
	}

	updated, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("status_changed",
		fmt.Sprintf("Order %s: %s -> %s", updated.Code, order.Status, target),
		requestID, map[string]interface{}{"order_id": updated.ID})

	s.events.Emit(models.NewOrderUpdatedEvent(updated))
	return updated, nil
}

// RecordPayment settles an order from any non-terminal state: it writes the
// payment row, drives status and payment_status to paid, and notifies the
// cashier group.
func (s *Service) RecordPayment(ctx context.Context, orderID int, req *models.RecordPaymentRequest, requestID string) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	newStatus, err := lifecycle.PaymentTransition(order.Status)
	if err != nil {
		return nil, err
	}

	applied, err := s.store.RecordPayment(ctx, order, req, newStatus)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: order %d changed concurrently", models.ErrIllegalTransition, order.ID)
	}

	updated, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment_recorded",
		fmt.Sprintf("Order %s paid %.2f by %s", updated.Code, req.Amount, req.PaymentType),
		requestID, map[string]interface{}{"order_id": updated.ID})

	s.events.Emit(models.NewPaymentRecordedEvent(updated, req.Amount))
	s.events.Emit(models.NewOrderUpdatedEvent(updated))
	return updated, nil
}

// Acknowledge is a kitchen terminal taking an order into preparation. Legal
// only from confirmed; the ack is echoed to all kitchen terminals of the
// branch so they converge.
func (s *Service) Acknowledge(ctx context.Context, orderID, userID int, requestID string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if _, err := lifecycle.Transition(order.Status, models.StatusPreparing); err != nil {
		return nil, err
	}

	applied, err := s.store.UpdateStatus(ctx, order.ID, order.Status, models.StatusPreparing)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: order %d changed concurrently", models.ErrIllegalTransition, order.ID)
	}

	updated, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_acknowledged",
		fmt.Sprintf("Order %s acknowledged by user %d", updated.Code, userID),
		requestID, map[string]interface{}{"order_id": updated.ID})

	s.events.Emit(models.NewKitchenAckEvent(updated, userID))
	s.events.Emit(models.NewOrderUpdatedEvent(updated))
	return updated, nil
}

// GetOrder loads an order by id.
func (s *Service) GetOrder(ctx context.Context, orderID int) (*models.Order, error) {
	return s.store.GetOrderByID(ctx, orderID)
}

// GetOrderByCode loads an order by its human-readable code.
func (s *Service) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	return s.store.GetOrderByCode(ctx, code)
}

// ListOrders returns orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter models.ListOrdersFilter) ([]models.Order, error) {
	return s.store.ListOrders(ctx, filter)
}
