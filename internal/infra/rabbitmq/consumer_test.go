package rabbitmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoffDoublesAndCaps(t *testing.T) {
	c := &Consumer{baseDelay: time.Second}

	assert.Equal(t, time.Second, c.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, c.calculateBackoff(2))
	assert.Equal(t, 8*time.Second, c.calculateBackoff(4))
	assert.Equal(t, 60*time.Second, c.calculateBackoff(10))
}

func TestGetAttemptFromHeaders(t *testing.T) {
	c := &Consumer{}

	assert.Equal(t, 1, c.getAttemptFromHeaders(amqp.Delivery{}))

	d := amqp.Delivery{Headers: amqp.Table{
		"x-death": []interface{}{map[string]interface{}{}, map[string]interface{}{}},
	}}
	assert.Equal(t, 2, c.getAttemptFromHeaders(d))
}
