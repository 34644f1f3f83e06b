// Package session ties a connection to a transcript. Inbound frames are
// decoded and appended in arrival order, and queries typed by the user are
// recorded locally and dispatched as raw text frames.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
	conn "github.com/mutablelogic/go-agentchat/pkg/conn"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	telemetry "github.com/mutablelogic/go-agentchat/pkg/telemetry"
	transcript "github.com/mutablelogic/go-agentchat/pkg/transcript"
	transport "github.com/mutablelogic/go-agentchat/pkg/transport"
	uidata "github.com/mutablelogic/go-agentchat/pkg/uidata"
	log "goa.design/clue/log"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Session is one conversation with an agent server, over one channel.
type Session struct {
	conn  *conn.Manager
	store *transcript.Store

	// guards dispatch and inbound appends against each other
	mu      sync.Mutex
	ctx     context.Context
	closing atomic.Bool
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a disconnected session with an empty transcript. Channels
// are opened with dialer.
func New(dialer transport.Dialer) *Session {
	s := &Session{
		conn:  conn.New(dialer),
		store: transcript.New(),
		ctx:   context.Background(),
	}
	s.conn.OnFrame(s.receive)
	return s
}

// Open connects to the agent server at url. The context is used for
// logging for the lifetime of the session.
func (s *Session) Open(ctx context.Context, url string) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	return s.conn.Open(ctx, url)
}

// Close disconnects from the server. No entry is appended from an inbound
// frame after Close returns.
func (s *Session) Close() error {
	// Not under the mutex: closing the channel is what unblocks a Send
	// stuck in a write
	s.closing.Store(true)
	return s.conn.Close()
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Status returns the connection status.
func (s *Session) Status() schema.Status {
	return s.conn.Status()
}

// OnStatus registers an observer for connection status transitions.
// The observer must not call Open or Close.
func (s *Session) OnStatus(fn conn.StatusObserver) {
	s.conn.OnStatus(fn)
}

// Transcript returns the session transcript.
func (s *Session) Transcript() *transcript.Store {
	return s.store
}

// Send dispatches a query typed by the user. Empty queries are rejected
// with ErrBadParameter, and any query while disconnected with
// ErrNotConnected; in both cases nothing is recorded or sent. Otherwise
// the query is appended to the transcript as a local user_query entry and
// written verbatim as a single frame. If the write fails the entry
// remains, and the error is returned.
func (s *Session) Send(query string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, endSpan := telemetry.StartSpan(s.ctx, "session.Send")
	defer func() { endSpan(err) }()

	if strings.TrimSpace(query) == "" {
		telemetry.Inc(ctx, telemetry.QueriesRejected, "reason", "empty")
		return agentchat.ErrBadParameter.With("empty query")
	}
	if s.closing.Load() || s.conn.Status() != schema.StatusConnected {
		telemetry.Inc(ctx, telemetry.QueriesRejected, "reason", "disconnected")
		return agentchat.ErrNotConnected
	}

	s.store.Append(schema.NewEvent(schema.KindUserQuery, query), true)
	if err := s.conn.Send(query); err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "send failed"})
		return err
	}
	telemetry.Inc(ctx, telemetry.QueriesSent)

	// Return success
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// receive decodes one inbound frame and appends it. Frames which do not
// decode are dropped.
func (s *Session) receive(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	telemetry.Inc(s.ctx, telemetry.FramesReceived)
	if s.closing.Load() {
		return
	}
	event, err := schema.Decode(frame)
	if err != nil {
		telemetry.Inc(s.ctx, telemetry.FramesInvalid)
		log.Warn(s.ctx, log.KV{K: "msg", V: "dropped frame"}, log.KV{K: "err", V: err.Error()})
		return
	}
	if !event.Kind.Known() {
		log.Debug(s.ctx, log.KV{K: "msg", V: "unknown event type"}, log.KV{K: "type", V: string(event.Kind)})
	} else if event.Kind == schema.KindFinalAnswer && uidata.HasBlock(event.Content) {
		if payload, _ := uidata.Extract(event.Content); payload == nil {
			log.Warn(s.ctx, log.KV{K: "msg", V: "answer block is not a list payload"})
		}
	}
	s.store.Append(event, false)
}
