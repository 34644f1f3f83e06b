package transport

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	// Packages
	websocket "github.com/gorilla/websocket"
	agentchat "github.com/mutablelogic/go-agentchat"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// WebSocketDialer dials WebSocket channels.
type WebSocketDialer struct {
	dialer       websocket.Dialer
	header       http.Header
	writeTimeout time.Duration
}

// Opt configures a WebSocketDialer.
type Opt func(*WebSocketDialer) error

// webSocket is a Channel over a WebSocket connection.
type webSocket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	wmu          sync.Mutex
	once         sync.Once
	err          error
}

var _ Dialer = (*WebSocketDialer)(nil)
var _ Channel = (*webSocket)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	closeTimeout            = time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewWebSocketDialer returns a dialer for ws:// and wss:// endpoints.
func NewWebSocketDialer(opts ...Opt) (*WebSocketDialer, error) {
	d := &WebSocketDialer{
		dialer:       *websocket.DefaultDialer,
		header:       make(http.Header),
		writeTimeout: defaultWriteTimeout,
	}
	d.dialer.HandshakeTimeout = defaultHandshakeTimeout
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithHandshakeTimeout sets the maximum time allowed for the opening handshake.
func WithHandshakeTimeout(timeout time.Duration) Opt {
	return func(d *WebSocketDialer) error {
		if timeout <= 0 {
			return agentchat.ErrBadParameter.With("handshake timeout must be positive")
		}
		d.dialer.HandshakeTimeout = timeout
		return nil
	}
}

// WithWriteTimeout sets the deadline for writing a single frame.
func WithWriteTimeout(timeout time.Duration) Opt {
	return func(d *WebSocketDialer) error {
		if timeout <= 0 {
			return agentchat.ErrBadParameter.With("write timeout must be positive")
		}
		d.writeTimeout = timeout
		return nil
	}
}

// WithHeader adds a header to the opening handshake request.
func WithHeader(key, value string) Opt {
	return func(d *WebSocketDialer) error {
		d.header.Add(key, value)
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Dial connects to a ws:// or wss:// URL.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Channel, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, agentchat.ErrBadParameter.Withf("endpoint %q: %v", endpoint, err)
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, agentchat.ErrBadParameter.Withf("endpoint %q: scheme must be ws or wss", endpoint)
	} else if u.Host == "" {
		return nil, agentchat.ErrBadParameter.Withf("endpoint %q: missing host", endpoint)
	}

	conn, _, err := d.dialer.DialContext(ctx, u.String(), d.header)
	if err != nil {
		return nil, err
	}
	return &webSocket{
		conn:         conn,
		writeTimeout: d.writeTimeout,
	}, nil
}

// ReadFrame returns the payload of the next text or binary message.
// Control frames are handled by the connection.
func (ws *webSocket) ReadFrame() ([]byte, error) {
	_, data, err := ws.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, agentchat.ErrClosed.With(err)
		}
		return nil, err
	}
	return data, nil
}

// WriteFrame sends text as a single text message.
func (ws *webSocket) WriteFrame(text string) error {
	ws.wmu.Lock()
	defer ws.wmu.Unlock()
	if err := ws.conn.SetWriteDeadline(time.Now().Add(ws.writeTimeout)); err != nil {
		return err
	}
	return ws.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close sends a close message and closes the connection, once. The close
// message is best-effort, as the peer may already have gone.
func (ws *webSocket) Close() error {
	ws.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		ws.err = ws.conn.Close()
	})
	return ws.err
}
