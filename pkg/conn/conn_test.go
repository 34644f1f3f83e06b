package conn_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	// Packages
	websocket "github.com/gorilla/websocket"
	agentchat "github.com/mutablelogic/go-agentchat"
	conn "github.com/mutablelogic/go-agentchat/pkg/conn"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	transport "github.com/mutablelogic/go-agentchat/pkg/transport"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// FAKES

type channel struct {
	in     chan []byte
	mu     sync.Mutex
	out    []string
	once   sync.Once
	closed chan struct{}
	closes int
}

func newChannel() *channel {
	return &channel{in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *channel) ReadFrame() ([]byte, error) {
	select {
	case frame, ok := <-c.in:
		if !ok {
			return nil, io.EOF
		}
		return frame, nil
	case <-c.closed:
		return nil, agentchat.ErrClosed
	}
}

func (c *channel) WriteFrame(text string) error {
	select {
	case <-c.closed:
		return agentchat.ErrClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, text)
	return nil
}

func (c *channel) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closes++
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

func (c *channel) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.out...)
}

type dialer struct {
	ch    *channel
	err   error
	dials int
}

func (d *dialer) Dial(ctx context.Context, url string) (transport.Channel, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.ch, nil
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_conn_001(t *testing.T) {
	assert := assert.New(t)
	m := conn.New(&dialer{ch: newChannel()})
	assert.Equal(schema.StatusDisconnected, m.Status())
	assert.ErrorIs(m.Send("hello"), agentchat.ErrNotConnected)
	assert.NoError(m.Close())
	assert.NoError(m.Close())

	// Closed before opening stays closed
	assert.ErrorIs(m.Open(context.Background(), "ws://localhost/ws"), agentchat.ErrClosed)
	assert.Equal(schema.StatusDisconnected, m.Status())
}

func Test_conn_002(t *testing.T) {
	assert := assert.New(t)
	ch := newChannel()
	m := conn.New(&dialer{ch: ch})

	var transitions []string
	m.OnStatus(func(from, to schema.Status) {
		// The new status is visible to observers
		assert.Equal(to, m.Status())
		transitions = append(transitions, from.String()+">"+to.String())
	})

	assert.NoError(m.Open(context.Background(), "ws://localhost/ws"))
	assert.Equal(schema.StatusConnected, m.Status())
	assert.NoError(m.Send("hello"))
	assert.Equal([]string{"hello"}, ch.sent())

	assert.NoError(m.Close())
	assert.Equal(schema.StatusDisconnected, m.Status())
	assert.ErrorIs(m.Send("again"), agentchat.ErrNotConnected)
	assert.Equal([]string{"hello"}, ch.sent())
	assert.Equal([]string{"disconnected>connected", "connected>disconnected"}, transitions)

	// Idempotent close releases the channel once
	assert.NoError(m.Close())
	assert.Equal(1, ch.closes)
	assert.Len(transitions, 2)
}

func Test_conn_003(t *testing.T) {
	assert := assert.New(t)

	// A failed dial leaves the manager disconnected
	dialErr := errors.New("connection refused")
	var transitions int
	m := conn.New(&dialer{err: dialErr})
	m.OnStatus(func(schema.Status, schema.Status) { transitions++ })
	assert.ErrorIs(m.Open(context.Background(), "ws://localhost/ws"), dialErr)
	assert.Equal(schema.StatusDisconnected, m.Status())
	assert.Equal(0, transitions)

	// There is no second attempt on the same manager
	assert.ErrorIs(m.Open(context.Background(), "ws://localhost/ws"), agentchat.ErrConflict)
}

func Test_conn_004(t *testing.T) {
	assert := assert.New(t)
	d := &dialer{ch: newChannel()}
	m := conn.New(d)
	defer m.Close()
	assert.NoError(m.Open(context.Background(), "ws://localhost/ws"))
	assert.ErrorIs(m.Open(context.Background(), "ws://localhost/ws"), agentchat.ErrConflict)
	assert.Equal(1, d.dials)
}

func Test_conn_005(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ch := newChannel()
	m := conn.New(&dialer{ch: ch})

	var mu sync.Mutex
	var frames []string
	m.OnFrame(func(frame []byte) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, string(frame))
	})
	disconnected := make(chan struct{})
	m.OnStatus(func(from, to schema.Status) {
		if to == schema.StatusDisconnected {
			close(disconnected)
		}
	})
	require.NoError(m.Open(context.Background(), "ws://localhost/ws"))

	// Frames arrive in order, then the remote end goes away
	for _, f := range []string{"1", "2", "3", "4", "5"} {
		ch.in <- []byte(f)
	}
	close(ch.in)

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		require.FailNow("no disconnect after remote close")
	}
	assert.Equal(schema.StatusDisconnected, m.Status())
	mu.Lock()
	assert.Equal([]string{"1", "2", "3", "4", "5"}, frames)
	mu.Unlock()

	// No reconnect; close is still safe
	assert.ErrorIs(m.Send("x"), agentchat.ErrNotConnected)
	assert.NoError(m.Close())
	assert.ErrorIs(m.Open(context.Background(), "ws://localhost/ws"), agentchat.ErrClosed)
}

func Test_conn_006(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ch := newChannel()
	m := conn.New(&dialer{ch: ch})

	var mu sync.Mutex
	var count int
	m.OnFrame(func([]byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(m.Open(context.Background(), "ws://localhost/ws"))
	ch.in <- []byte("a")
	require.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, time.Millisecond)

	// Nothing is delivered once Close has returned
	require.NoError(m.Close())
	ch.in <- []byte("b")
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(1, count)
	mu.Unlock()
}

func Test_conn_007(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// Against a real WebSocket server
	received := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		c.WriteMessage(websocket.TextMessage, []byte(`{"type":"step_start","content":"Step 1: Thinking..."}`))
		if _, data, err := c.ReadMessage(); err == nil {
			received <- string(data)
		}
		c.ReadMessage()
	}))
	defer server.Close()

	d, err := transport.NewWebSocketDialer()
	require.NoError(err)
	m := conn.New(d)
	frames := make(chan string, 1)
	m.OnFrame(func(frame []byte) { frames <- string(frame) })
	require.NoError(m.Open(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http")+"/ws"))

	select {
	case frame := <-frames:
		assert.Contains(frame, "step_start")
	case <-time.After(time.Second):
		require.FailNow("no frame")
	}
	require.NoError(m.Send("hello"))
	select {
	case text := <-received:
		assert.Equal("hello", text)
	case <-time.After(time.Second):
		require.FailNow("server received nothing")
	}
	assert.NoError(m.Close())
	assert.Equal(schema.StatusDisconnected, m.Status())
}

func Test_conn_008(t *testing.T) {
	assert := assert.New(t)

	// A malformed endpoint is just a failed open
	d, err := transport.NewWebSocketDialer()
	assert.NoError(err)
	m := conn.New(d)
	assert.ErrorIs(m.Open(context.Background(), "not a url"), agentchat.ErrBadParameter)
	assert.Equal(schema.StatusDisconnected, m.Status())
}
