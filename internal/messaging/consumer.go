package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

func decodeEvent(body []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// EventHandler processes one delivered event.
type EventHandler func(ctx context.Context, event models.Event) error

// Consumer joins a (branch, role) group by declaring an exclusive auto-delete
// queue bound to the group's routing pattern. The queue exists only while the
// consumer's connection does, so a disconnected terminal receives nothing and
// must reconcile on reconnect.
type Consumer struct {
	conn     *Connection
	logger   *logger.Logger
	branchID int
	role     models.Role
	tag      string
}

// NewConsumer creates a consumer for one (branch, role) group.
func NewConsumer(conn *Connection, log *logger.Logger, branchID int, role models.Role, tag string) *Consumer {
	return &Consumer{
		conn:     conn,
		logger:   log,
		branchID: branchID,
		role:     role,
		tag:      tag,
	}
}

// StartConsuming declares the group queue, binds it and processes deliveries
// until ctx is cancelled.
func (c *Consumer) StartConsuming(ctx context.Context, handler EventHandler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	ch := c.conn.Channel()

	// Server-named, exclusive, auto-delete: the queue is this connection's
	// group membership and disappears with it.
	queue, err := ch.QueueDeclare(
		"",    // name (server generated)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare group queue: %w", err)
	}

	pattern := BindingPattern(c.branchID, string(c.role))
	if err := ch.QueueBind(queue.Name, pattern, EventsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind group queue: %w", err)
	}

	deliveries, err := ch.Consume(
		queue.Name, // queue
		c.tag,      // consumer
		true,       // auto-ack: missed processing is reconciled, not redelivered
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("group_joined",
		fmt.Sprintf("Joined branch %d %s group", c.branchID, c.role),
		"", map[string]interface{}{
			"queue":   queue.Name,
			"pattern": pattern,
		})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			event, err := decodeEvent(delivery.Body)
			if err != nil {
				c.logger.Error("event_decode_failed", "Failed to decode event", "", err, map[string]interface{}{
					"routing_key": delivery.RoutingKey,
				})
				continue
			}

			if err := handler(ctx, event); err != nil {
				c.logger.Error("event_handle_failed",
					fmt.Sprintf("Failed to handle %s", event.Name),
					"", err, map[string]interface{}{
						"event_id": event.ID,
					})
			}
		}
	}
}
