package grid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/gridctl/internal/observability"
	"github.com/danmuck/gridctl/internal/protocol"
)

// Transport delivers one command line and returns the server's reply.
// Both calls are synchronous; any concurrency or timeout policy lives
// behind this interface. Errors pass through to the caller unchanged.
type Transport interface {
	SendText(ctx context.Context, cmd string) (string, error)
	SendBinary(ctx context.Context, cmd string) ([]byte, error)
	Close() error
}

// Client is one session against a grid server: a transport plus the
// session limits. Arrays hold a pointer to the Client that minted them
// and route every command through it.
type Client struct {
	transport Transport
	cfg       Config
}

// NewClient wraps an established transport in a session.
func NewClient(t Transport, cfg Config) *Client {
	return &Client{transport: t, cfg: cfg.WithDefaults()}
}

// Config returns the session limits.
func (c *Client) Config() Config { return c.cfg }

// Close shuts down the underlying transport. Arrays minted by the
// session become unusable.
func (c *Client) Close() error { return c.transport.Close() }

// ArrayFromReply mints an Array from a handle-creation reply. It is the
// only way an Array comes into existence; the server has already
// allocated the storage the descriptor names.
func (c *Client) ArrayFromReply(reply string) (*Array, error) {
	desc, err := protocol.ParseCreated(reply)
	if err != nil {
		return nil, err
	}
	return &Array{client: c, desc: desc}, nil
}

// Info asks the server to describe the named array.
func (c *Client) Info(ctx context.Context, name string) (string, error) {
	return c.roundTrip(ctx, protocol.Info(name))
}

// Str asks for a human-readable rendering of the named array.
func (c *Client) Str(ctx context.Context, name string) (string, error) {
	return c.roundTrip(ctx, protocol.Str(name, c.cfg.PrintThreshold))
}

// Repr asks for a developer-oriented rendering of the named array.
func (c *Client) Repr(ctx context.Context, name string) (string, error) {
	return c.roundTrip(ctx, protocol.Repr(name, c.cfg.PrintThreshold))
}

// Remove deletes the named array on the server. Unlike Array.Release
// this reports failures; it serves tooling that works from raw names.
func (c *Client) Remove(ctx context.Context, name string) error {
	_, err := c.roundTrip(ctx, protocol.Delete(name))
	return err
}

// roundTrip sends one text command and classifies the text reply.
// Server-reported failures come back as protocol.ErrServer; transport
// failures pass through unchanged.
func (c *Client) roundTrip(ctx context.Context, cmd string) (string, error) {
	tag := commandTag(cmd)
	start := time.Now()
	reply, err := c.transport.SendText(ctx, cmd)
	if err == nil {
		err = protocol.CheckError(reply)
	}
	observability.RecordCommand(tag, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", tag, err)
	}
	log.Debug().Str("cmd", cmd).Int("reply_bytes", len(reply)).Msg("grid round trip")
	return reply, nil
}

// roundTripBinary sends one command whose reply is a raw payload.
func (c *Client) roundTripBinary(ctx context.Context, cmd string) ([]byte, error) {
	tag := commandTag(cmd)
	start := time.Now()
	payload, err := c.transport.SendBinary(ctx, cmd)
	observability.RecordCommand(tag, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	observability.RecordTransfer(len(payload))
	log.Debug().Str("cmd", cmd).Int("reply_bytes", len(payload)).Msg("grid bulk round trip")
	return payload, nil
}

func commandTag(cmd string) string {
	if i := strings.IndexByte(cmd, ' '); i > 0 {
		return cmd[:i]
	}
	return cmd
}
