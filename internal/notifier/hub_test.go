package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/zerobertocosta/Karibu/internal/config"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failWith error
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.messages = append(c.messages, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.messages))
	copy(out, c.messages)
	return out
}

func newTestHub(buffer int) *Hub {
	cfg := config.Config{}
	cfg.Notifier.BufferSize = buffer
	return NewHub(cfg, zap.NewNop())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_BroadcastReachesOnlySubscribedChannel(t *testing.T) {
	hub := newTestHub(16)
	go hub.Run()
	defer hub.Close()

	kitchenA := &fakeConn{}
	kitchenB := &fakeConn{}
	hub.Subscribe(ChannelKey(1), kitchenA)
	hub.Subscribe(ChannelKey(2), kitchenB)

	hub.Broadcast(ChannelKey(1), []byte(`{"ticket_id":1}`))

	waitFor(t, func() bool { return len(kitchenA.received()) == 1 })
	assert.Empty(t, kitchenB.received())
}

func TestHub_SameChannelOrderPreserved(t *testing.T) {
	hub := newTestHub(16)
	go hub.Run()
	defer hub.Close()

	display := &fakeConn{}
	hub.Subscribe(ChannelKey(7), display)

	hub.Broadcast(ChannelKey(7), []byte("first"))
	hub.Broadcast(ChannelKey(7), []byte("second"))
	hub.Broadcast(ChannelKey(7), []byte("third"))

	waitFor(t, func() bool { return len(display.received()) == 3 })
	got := display.received()
	assert.Equal(t, "first", string(got[0]))
	assert.Equal(t, "second", string(got[1]))
	assert.Equal(t, "third", string(got[2]))
}

func TestHub_FailingConnIsDropped(t *testing.T) {
	hub := newTestHub(16)
	go hub.Run()
	defer hub.Close()

	broken := &fakeConn{failWith: assert.AnError}
	healthy := &fakeConn{}
	hub.Subscribe(ChannelKey(3), broken)
	hub.Subscribe(ChannelKey(3), healthy)

	hub.Broadcast(ChannelKey(3), []byte("tick"))

	waitFor(t, func() bool { return hub.Subscribers(ChannelKey(3)) == 1 })
	waitFor(t, func() bool { return len(healthy.received()) == 1 })

	broken.mu.Lock()
	closed := broken.closed
	broken.mu.Unlock()
	assert.True(t, closed)
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := newTestHub(1)
	// No Run loop: the buffer never drains.

	done := make(chan struct{})
	go func() {
		hub.Broadcast(ChannelKey(9), []byte("kept"))
		hub.Broadcast(ChannelKey(9), []byte("dropped"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full buffer")
	}
}

func TestHubPublisher_MarshalsNotification(t *testing.T) {
	hub := newTestHub(16)
	go hub.Run()
	defer hub.Close()

	display := &fakeConn{}
	hub.Subscribe(ChannelKey(4), display)

	pub := &hubPublisher{hub: hub}
	err := pub.Publish(context.Background(), ChannelKey(4), TicketNotification{
		TicketID:    11,
		OrderID:     5,
		TableNumber: "12",
		Lines:       []TicketLine{{MenuItemName: "Feijoada", Quantity: 2}},
	})
	assert.NoError(t, err)

	waitFor(t, func() bool { return len(display.received()) == 1 })

	var got TicketNotification
	assert.NoError(t, json.Unmarshal(display.received()[0], &got))
	assert.Equal(t, int64(11), got.TicketID)
	assert.Equal(t, "12", got.TableNumber)
	assert.Len(t, got.Lines, 1)
}

func TestChannelKey(t *testing.T) {
	assert.Equal(t, "kitchen_updates:42", ChannelKey(42))
}
