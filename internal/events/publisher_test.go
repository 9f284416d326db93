package events

import (
	"context"
	"sort"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestHeaderCarrier(t *testing.T) {
	h := make(nats.Header)
	c := HeaderCarrier(h)

	c.Set("traceparent", "00-abc-def-01")
	c.Set("tracestate", "k=v")

	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))

	keys := c.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"traceparent", "tracestate"}, keys)
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NoError(t, n.PublishUserRegistered(context.Background(), UserRegistered{UserID: "u1"}))
	assert.NoError(t, n.PublishPasswordReset(context.Background(), PasswordReset{UserID: "u1"}))
}
