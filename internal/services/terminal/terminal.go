// Package terminal runs one operational terminal: a kitchen or cashier screen
// for a single branch. It joins its (branch, role) group over RabbitMQ and
// reacts to the lifecycle event stream. On startup it reconciles by fetching
// the branch's current open orders from the order service, because events
// missed while disconnected are never redelivered.
package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
)

// Config describes one terminal.
type Config struct {
	BranchID int
	Role     models.Role
	Name     string
	// APIBaseURL is the order service address used for reconciliation.
	APIBaseURL string
}

// Terminal consumes lifecycle events for one branch and role.
type Terminal struct {
	cfg      Config
	consumer *messaging.Consumer
	logger   *logger.Logger
	client   *http.Client
}

// New creates a terminal.
func New(cfg Config, conn *messaging.Connection, log *logger.Logger) *Terminal {
	return &Terminal{
		cfg:      cfg,
		consumer: messaging.NewConsumer(conn, log, cfg.BranchID, cfg.Role, cfg.Name),
		logger:   log,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Run reconciles current state, then consumes events until ctx is cancelled.
func (t *Terminal) Run(ctx context.Context) error {
	if err := t.reconcile(ctx); err != nil {
		// The terminal can still show live events; state catches up with them.
		t.logger.Error("reconcile_failed", "Failed to fetch current orders", "", err, nil)
	}

	return t.consumer.StartConsuming(ctx, t.handleEvent)
}

// reconcile fetches the branch's open orders so the terminal does not depend
// on redelivery of events it missed while offline.
func (t *Terminal) reconcile(ctx context.Context) error {
	if t.cfg.APIBaseURL == "" {
		return nil
	}

	url := fmt.Sprintf("%s/orders?branch_id=%d", t.cfg.APIBaseURL, t.cfg.BranchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order service returned %d", resp.StatusCode)
	}

	var body struct {
		Orders []models.Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	t.logger.Info("reconciled",
		fmt.Sprintf("Loaded %d current orders for branch %d", len(body.Orders), t.cfg.BranchID),
		"", map[string]interface{}{
			"branch_id": t.cfg.BranchID,
			"role":      t.cfg.Role,
		})
	return nil
}

func (t *Terminal) handleEvent(ctx context.Context, event models.Event) error {
	fields := map[string]interface{}{
		"event_id":  event.ID,
		"branch_id": event.BranchID,
	}

	switch event.Name {
	case models.EventOrderCreated:
		t.logger.Info("order_received", "New order for this branch", "", fields)
	case models.EventOrderUpdated:
		t.logger.Info("order_changed", "Order status changed", "", fields)
	case models.EventPaymentRecorded:
		t.logger.Info("payment_seen", "Payment recorded", "", fields)
	case models.EventKitchenAck:
		t.logger.Info("order_taken", "Order taken by another terminal", "", fields)
	default:
		t.logger.Debug("event_ignored", fmt.Sprintf("Unhandled event %s", event.Name), "", fields)
	}
	return nil
}
