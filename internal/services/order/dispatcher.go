package order

import (
	"context"
	"time"

	"restaurant-pos/internal/broadcast"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
)

// eventRelay is the broker surface the dispatcher relays events through.
type eventRelay interface {
	PublishEvent(ctx context.Context, event models.Event) error
}

// Dispatcher is the EventSink wired in production: events go to the
// in-process hub for SSE subscribers and to RabbitMQ for remote terminals.
// Both paths are best-effort; neither can block or fail the operation that
// triggered the event.
//
// The broker relay is a single worker draining a buffered queue, so events
// reach the exchange in the order they were emitted. A full queue drops the
// event rather than delay the caller.
type Dispatcher struct {
	hub    *broadcast.Hub
	logger *logger.Logger
	relay  eventRelay
	queue  chan models.Event
	done   chan struct{}
}

// NewDispatcher creates a dispatcher and starts its relay worker. publisher
// may be nil when running without a broker.
func NewDispatcher(hub *broadcast.Hub, publisher *messaging.Publisher, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		hub:    hub,
		logger: log,
	}
	if publisher != nil {
		d.startRelay(publisher)
	}
	return d
}

func (d *Dispatcher) startRelay(relay eventRelay) {
	d.relay = relay
	d.queue = make(chan models.Event, 256)
	d.done = make(chan struct{})
	go d.relayLoop()
}

func (d *Dispatcher) relayLoop() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := d.relay.PublishEvent(ctx, event)
		cancel()
		if err != nil {
			d.logger.Error("event_relay_failed", "Failed to relay event to broker", "", err, map[string]interface{}{
				"event":    event.Name,
				"event_id": event.ID,
			})
		}
	}
}

// Emit fans the event out. The hub publish is non-blocking by construction;
// the broker relay enqueues without blocking and a slow broker backs up the
// queue, never the caller.
func (d *Dispatcher) Emit(event models.Event) {
	d.hub.Publish(event)

	if d.queue == nil {
		return
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Error("event_relay_dropped", "Relay queue full, event dropped", "", nil, map[string]interface{}{
			"event":    event.Name,
			"event_id": event.ID,
		})
	}
}

// Close stops the relay worker after the queued events have been published.
// Call it only once all emitters have stopped.
func (d *Dispatcher) Close() {
	if d.queue == nil {
		return
	}
	close(d.queue)
	<-d.done
}
