package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// Publisher relays lifecycle events to the events exchange, once per audience
// role. Delivery is transient (non-persistent): the exchange carries live
// notifications, not a replay log — a terminal that is offline reconciles by
// re-fetching order lists, it does not receive queued history.
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishEvent publishes the event to each role in its audience.
func (p *Publisher) PublishEvent(ctx context.Context, event models.Event) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Transient,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, role := range event.Audience {
		routingKey := RoutingKey(event.BranchID, string(role), event.Name)

		err = p.conn.Channel().PublishWithContext(
			ctx,
			EventsExchange, // exchange
			routingKey,     // routing key
			false,          // mandatory
			false,          // immediate
			publishing,
		)
		if err != nil {
			p.logger.Error("event_publish_failed",
				fmt.Sprintf("Failed to publish %s", event.Name),
				"", err, map[string]interface{}{
					"exchange":    EventsExchange,
					"routing_key": routingKey,
				})
			return fmt.Errorf("failed to publish event: %w", err)
		}

		p.logger.Debug("event_published",
			fmt.Sprintf("Published %s", event.Name),
			"", map[string]interface{}{
				"exchange":    EventsExchange,
				"routing_key": routingKey,
				"event_id":    event.ID,
			})
	}

	return nil
}

// Close closes the publisher's connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
