package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrReplyType reports a WebSocket reply whose frame type does not
// match the kind of reply the command calls for. The connection is out
// of step with the server; the call is not retried.
var ErrReplyType = errors.New("transport: unexpected reply frame type")

// WSConn carries commands over a WebSocket connection: text frames for
// commands and text replies, one binary frame per bulk reply.
type WSConn struct {
	cfg  Config
	mu   sync.Mutex
	conn *websocket.Conn
}

// DialWS connects to the grid server's WebSocket endpoint. Plain
// host:port addresses resolve to ws:// or wss:// depending on the TLS
// block; full URLs are used as given.
func DialWS(ctx context.Context, cfg Config) (*WSConn, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}

	endpoint := cfg.Addr
	if !hasScheme(endpoint) {
		scheme := "ws"
		if cfg.TLS.Enabled {
			scheme = "wss"
		}
		endpoint = fmt.Sprintf("%s://%s/", scheme, cfg.Addr)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	if cfg.TLS.Enabled {
		tlsCfg, err := cfg.clientTLSConfig()
		if err != nil {
			return nil, err
		}
		dialer.TLSClientConfig = tlsCfg
	}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: ws dial %s: %w", endpoint, err)
	}
	conn.SetReadLimit(cfg.MaxReplyBytes)
	return &WSConn{cfg: cfg, conn: conn}, nil
}

func hasScheme(addr string) bool {
	u, err := url.Parse(addr)
	return err == nil && (u.Scheme == "ws" || u.Scheme == "wss")
}

// SendText delivers one command and requires a text reply.
func (c *WSConn) SendText(ctx context.Context, cmd string) (string, error) {
	payload, mt, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return "", err
	}
	if mt != websocket.TextMessage {
		return "", fmt.Errorf("%w: got binary, want text", ErrReplyType)
	}
	return string(payload), nil
}

// SendBinary delivers one command and requires a binary reply.
func (c *WSConn) SendBinary(ctx context.Context, cmd string) ([]byte, error) {
	payload, mt, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		return nil, fmt.Errorf("%w: got text, want binary", ErrReplyType)
	}
	return payload, nil
}

// Close shuts the connection down. Safe to call more than once.
func (c *WSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *WSConn) roundTrip(ctx context.Context, cmd string) ([]byte, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, 0, ErrClosed
	}

	if err := c.conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout)); err != nil {
		return nil, 0, err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		return nil, 0, fmt.Errorf("transport: ws write: %w", err)
	}

	if err := c.conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout)); err != nil {
		return nil, 0, err
	}
	mt, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, 0, fmt.Errorf("transport: ws read: %w", err)
	}
	return payload, mt, nil
}
