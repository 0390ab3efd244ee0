package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "branch.1.kitchen.order.created", RoutingKey(1, "kitchen", "order.created"))
	assert.Equal(t, "branch.42.cashier.payment.recorded", RoutingKey(42, "cashier", "payment.recorded"))
}

func TestBindingPatternMatchesOwnKeys(t *testing.T) {
	// A terminal bound with its pattern receives every event routed to its
	// (branch, role) group and nothing from other branches or roles.
	assert.Equal(t, "branch.7.kitchen.#", BindingPattern(7, "kitchen"))

	tests := []struct {
		name    string
		key     string
		matches bool
	}{
		{"own order event", RoutingKey(7, "kitchen", "order.created"), true},
		{"own ack event", RoutingKey(7, "kitchen", "kitchen.ack"), true},
		{"other branch", RoutingKey(8, "kitchen", "order.created"), false},
		{"other role", RoutingKey(7, "cashier", "payment.recorded"), false},
	}

	pattern := BindingPattern(7, "kitchen")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, topicMatches(pattern, tt.key))
		})
	}
}

// topicMatches mirrors AMQP topic matching for patterns ending in #.
func topicMatches(pattern, key string) bool {
	if len(pattern) < 2 || pattern[len(pattern)-2:] != ".#" {
		return pattern == key
	}
	prefix := pattern[:len(pattern)-1]
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}
