// Package lifecycle owns the order status machine. The directed edge table
// below is the single source of truth for which transitions are legal; callers
// never write a status the table does not reach.
package lifecycle

import (
	"fmt"

	"restaurant-pos/internal/models"
)

// edges lists the allowed transitions out of each status. Terminal statuses
// have no entry.
var edges = map[models.OrderStatus][]models.OrderStatus{
	models.StatusSubmitted: {models.StatusPending, models.StatusConfirmed, models.StatusCancelled},
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusServed, models.StatusCancelled},
	models.StatusServed:    {models.StatusPaid, models.StatusCancelled},
	models.StatusPaid:      {models.StatusCompleted},
}

// IsTerminal reports whether status has no outgoing edges.
func IsTerminal(status models.OrderStatus) bool {
	return status == models.StatusCompleted || status == models.StatusCancelled
}

// CanTransition reports whether the edge from → to exists.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the edge from → to and returns the new status, or
// ErrIllegalTransition when the edge does not exist.
func Transition(from, to models.OrderStatus) (models.OrderStatus, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", models.ErrIllegalTransition, from, to)
	}
	return to, nil
}

// PaymentTransition is the distinguished transition driven by recording a
// payment: it moves any non-terminal order to paid regardless of where in the
// lifecycle it currently is.
func PaymentTransition(from models.OrderStatus) (models.OrderStatus, error) {
	if IsTerminal(from) || from == models.StatusPaid {
		return from, fmt.Errorf("%w: cannot record payment on %s order", models.ErrIllegalTransition, from)
	}
	return models.StatusPaid, nil
}
