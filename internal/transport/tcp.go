package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrClosed reports use of a transport after Close.
	ErrClosed = errors.New("transport: connection closed")

	// ErrReplyTooLarge reports a reply frame above MaxReplyBytes.
	ErrReplyTooLarge = errors.New("transport: reply exceeds size limit")
)

// Conn is a framed TCP connection to a grid server. Every message in
// both directions is a 4-byte big-endian length prefix followed by
// that many payload bytes; the payload of a request is the command
// line, the payload of a reply is either reply text or a bulk block.
type Conn struct {
	cfg  Config
	mu   sync.Mutex
	conn net.Conn
	br   *bufio.Reader
}

// DialTCP connects to cfg.Addr, retrying with backoff up to
// MaxConnectAttempts. TLS is negotiated when configured, and the
// configuration is validated against the security mode before the
// first dial.
func DialTCP(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var attempt int
	for {
		attempt++
		conn, err := dialOnce(ctx, cfg)
		if err == nil {
			return &Conn{cfg: cfg, conn: conn, br: bufio.NewReader(conn)}, nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Str("addr", cfg.Addr).Msg("dial failed")
		if cfg.MaxConnectAttempts > 0 && attempt >= cfg.MaxConnectAttempts {
			return nil, err
		}
		if err := sleepBackoff(ctx, cfg.Backoff, attempt, rng); err != nil {
			return nil, err
		}
	}
}

func dialOnce(ctx context.Context, cfg Config) (net.Conn, error) {
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS.Enabled {
		return rawConn, nil
	}

	tlsCfg, err := cfg.clientTLSConfig()
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func sleepBackoff(ctx context.Context, cfg BackoffConfig, attempt int, rng *rand.Rand) error {
	timer := time.NewTimer(NextBackoffDelay(cfg, attempt, rng))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SendText delivers one command and returns the text reply.
func (c *Conn) SendText(ctx context.Context, cmd string) (string, error) {
	reply, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return "", err
	}
	return string(reply), nil
}

// SendBinary delivers one command and returns the raw reply payload.
func (c *Conn) SendBinary(ctx context.Context, cmd string) ([]byte, error) {
	return c.roundTrip(ctx, cmd)
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

// roundTrip writes one frame and reads one frame. The mutex keeps a
// single request in flight per connection.
func (c *Conn) roundTrip(ctx context.Context, cmd string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, ErrClosed
	}

	if err := c.conn.SetWriteDeadline(deadline(ctx, c.cfg.WriteTimeout)); err != nil {
		return nil, err
	}
	if err := writeFrame(c.conn, []byte(cmd)); err != nil {
		return nil, fmt.Errorf("transport: write: %w", err)
	}

	if err := c.conn.SetReadDeadline(deadline(ctx, c.cfg.ReadTimeout)); err != nil {
		return nil, err
	}
	reply, err := readFrame(c.br, c.cfg.MaxReplyBytes)
	if err != nil {
		return nil, fmt.Errorf("transport: read: %w", err)
	}
	return reply, nil
}

// deadline is the sooner of now+timeout and the context deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}

func writeFrame(w io.Writer, payload []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader, limit int64) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	n := int64(binary.BigEndian.Uint32(prefix[:]))
	if n > limit {
		return nil, fmt.Errorf("%w: %d bytes with limit %d", ErrReplyTooLarge, n, limit)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
