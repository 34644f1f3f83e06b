// Package conn manages the lifecycle of the single channel a session holds
// open to an agent server.
//
// A Manager moves from disconnected to connected when Open succeeds, and
// back to disconnected when the channel closes at either end. It never
// reconnects: once closed, a Manager stays closed, and a new session needs
// a new Manager.
package conn

import (
	"context"
	"sync"

	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	telemetry "github.com/mutablelogic/go-agentchat/pkg/telemetry"
	transport "github.com/mutablelogic/go-agentchat/pkg/transport"
	log "goa.design/clue/log"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// FrameHandler receives each inbound frame, in arrival order.
type FrameHandler func(frame []byte)

// StatusObserver is called after each status transition.
type StatusObserver func(from, to schema.Status)

// Manager owns one channel and its connection status.
type Manager struct {
	dialer transport.Dialer

	// guarded by mu
	mu        sync.Mutex
	status    schema.Status
	ch        transport.Channel
	opened    bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
	onFrame   FrameHandler
	observers []StatusObserver
	logctx    context.Context

	// serializes transitions with their notifications
	transition sync.Mutex
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a disconnected manager which opens channels with dialer.
func New(dialer transport.Dialer) *Manager {
	return &Manager{
		dialer: dialer,
		logctx: context.Background(),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// OnFrame sets the handler for inbound frames. It is called from a single
// goroutine, one frame at a time. The handler must not call Close.
func (m *Manager) OnFrame(fn FrameHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = fn
}

// OnStatus registers an observer for status transitions. Observers run
// synchronously, in registration order, once the new status is visible
// through Status. Observers must not call Open or Close.
func (m *Manager) OnStatus(fn StatusObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Status returns the current connection status.
func (m *Manager) Status() schema.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Open dials url and, on success, moves to connected and starts reading
// frames. A manager opens at most one channel: a second call returns
// ErrConflict, and a call after Close returns ErrClosed. A bad URL and a
// failed dial both leave the manager disconnected.
func (m *Manager) Open(ctx context.Context, url string) (err error) {
	ctx, endSpan := telemetry.StartSpan(ctx, "conn.Open", "url", url)
	defer func() { endSpan(err) }()

	m.transition.Lock()
	defer m.transition.Unlock()

	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return agentchat.ErrClosed.With("connection manager")
	case m.opened:
		m.mu.Unlock()
		return agentchat.ErrConflict.With("channel already opened")
	}
	m.opened = true
	m.logctx = ctx
	dialctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	// Dial without holding the lock, so Close can cancel it
	ch, err := m.dialer.Dial(dialctx, url)
	cancel()
	if err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "connect failed"}, log.KV{K: "url", V: url}, log.KV{K: "err", V: err.Error()})
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		ch.Close()
		return agentchat.ErrClosed.With("closed while connecting")
	}
	m.ch = ch
	m.status = schema.StatusConnected
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	log.Info(ctx, log.KV{K: "msg", V: "connected"}, log.KV{K: "url", V: url})
	m.notify(ctx, schema.StatusDisconnected, schema.StatusConnected)

	go m.run(ch, done)

	// Return success
	return nil
}

// Send writes text as a single raw frame. It returns ErrNotConnected
// unless the manager is connected. A failed write closes the channel.
func (m *Manager) Send(text string) error {
	m.mu.Lock()
	if m.status != schema.StatusConnected {
		m.mu.Unlock()
		return agentchat.ErrNotConnected
	}
	ch := m.ch
	m.mu.Unlock()

	if err := ch.WriteFrame(text); err != nil {
		// The read loop sees the closed channel and moves to disconnected
		ch.Close()
		return err
	}
	return nil
}

// Close releases the channel, moving to disconnected. It waits for the
// read loop to finish, so no frame is delivered after Close returns. Close
// is idempotent, and must not be called from a FrameHandler.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	ch, done, cancel := m.ch, m.done, m.cancel
	m.mu.Unlock()

	// Stop any dial in progress, then the channel and read loop
	if cancel != nil {
		cancel()
	}
	var result error
	if ch != nil {
		result = ch.Close()
	}
	if done != nil {
		<-done
	}

	m.transition.Lock()
	defer m.transition.Unlock()
	m.mu.Lock()
	from := m.status
	m.status = schema.StatusDisconnected
	logctx := m.logctx
	m.mu.Unlock()
	if from != schema.StatusDisconnected {
		log.Info(logctx, log.KV{K: "msg", V: "disconnected"}, log.KV{K: "reason", V: "closed"})
		m.notify(logctx, from, schema.StatusDisconnected)
	}

	return result
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// run delivers frames until the channel fails or is closed.
func (m *Manager) run(ch transport.Channel, done chan struct{}) {
	defer close(done)
	for {
		frame, err := ch.ReadFrame()
		if err != nil {
			m.dropped(ch, err)
			return
		}

		m.mu.Lock()
		closed, fn := m.closed, m.onFrame
		m.mu.Unlock()
		if closed {
			return
		} else if fn != nil {
			fn(frame)
		}
	}
}

// dropped handles the channel ending without Close being called.
func (m *Manager) dropped(ch transport.Channel, err error) {
	m.transition.Lock()
	defer m.transition.Unlock()

	m.mu.Lock()
	if m.closed {
		// Close is in progress and will report the transition
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.status = schema.StatusDisconnected
	logctx := m.logctx
	m.mu.Unlock()

	ch.Close()
	log.Info(logctx, log.KV{K: "msg", V: "disconnected"}, log.KV{K: "reason", V: err.Error()})
	m.notify(logctx, schema.StatusConnected, schema.StatusDisconnected)
}

// notify calls the status observers; the caller holds m.transition.
func (m *Manager) notify(ctx context.Context, from, to schema.Status) {
	telemetry.Inc(ctx, telemetry.ConnectionTransitions, "to", to.String())

	m.mu.Lock()
	observers := make([]StatusObserver, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(from, to)
	}
}
