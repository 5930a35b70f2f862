package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish("one")
	h.Publish("two")

	assert.Equal(t, "one", <-ch)
	assert.Equal(t, "two", <-ch)
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Nobody drains; publishing past the buffer must not block.
	for i := 0; i < 100; i++ {
		h.Publish("evt")
	}
	assert.Equal(t, cap(ch), len(ch))
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	// Closed channel is gone from the client map; this must not panic.
	h.Publish("evt")
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeRunCompleted, 1, map[string]int{"inserted": 3})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, TypeRunCompleted, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.False(t, e.At.IsZero())
	assert.JSONEq(t, `{"inserted":3}`, string(e.Data))
}
