package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishTicketUpdate(t *testing.T) {
	hub := NewHub(nil)
	client := &Client{ID: "c1", UserID: "u1", Events: make(chan Event, 1)}
	hub.Register(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.PublishTicketUpdate(TicketUpdate{Kind: "complaint", ID: "rec-1", Name: "REC-2024-0001", Action: "closed", State: "closed"})

	ev := <-client.Events
	assert.Equal(t, "ticket_update", ev.EventType)
	var got TicketUpdate
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &got))
	assert.Equal(t, "REC-2024-0001", got.Name)

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		hub.PublishTicketUpdate(TicketUpdate{Kind: "complaint", ID: "1"})
		hub.PublishTicketUpdate(TicketUpdate{Kind: "complaint", ID: "2"})
		assert.Len(t, client.Events, 1)
	})

	hub.Unregister("c1")
	assert.Zero(t, hub.ClientCount())
	_, open := <-client.Events
	assert.True(t, open) // buffered event still readable
	_, open = <-client.Events
	assert.False(t, open)
}

func TestHub_NilSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.PublishTicketUpdate(TicketUpdate{ID: "x"}) })
}
