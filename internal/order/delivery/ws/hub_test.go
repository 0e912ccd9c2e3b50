package ws_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tair/wholesale-backoffice/internal/order/delivery/ws"
)

type fakeConn struct {
	messages []string
	failNext bool
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.failNext {
		return errors.New("write on closed connection")
	}
	c.messages = append(c.messages, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	hub := ws.NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("stock updated")

	assert.Equal(t, []string{"stock updated"}, a.messages)
	assert.Equal(t, []string{"stock updated"}, b.messages)
	assert.Equal(t, 2, hub.Count())
}

func TestHub_FailedWriterDropped(t *testing.T) {
	hub := ws.NewHub()
	healthy, broken := &fakeConn{}, &fakeConn{failNext: true}
	hub.Register(healthy)
	hub.Register(broken)

	hub.Broadcast("stock updated")

	assert.Equal(t, 1, hub.Count())
	assert.True(t, broken.closed)

	// Next broadcast only reaches the survivor
	hub.Broadcast("stock updated")
	assert.Len(t, healthy.messages, 2)
}

func TestHub_Unregister(t *testing.T) {
	hub := ws.NewHub()
	conn := &fakeConn{}
	hub.Register(conn)
	hub.Unregister(conn)

	hub.Broadcast("stock updated")

	assert.Empty(t, conn.messages)
	assert.Equal(t, 0, hub.Count())
}
