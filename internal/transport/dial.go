package transport

import (
	"context"
	"fmt"

	"github.com/danmuck/gridctl/internal/grid"
)

// Dial establishes a connection of the configured kind. Both kinds
// satisfy grid.Transport.
func Dial(ctx context.Context, cfg Config) (grid.Transport, error) {
	cfg = cfg.WithDefaults()
	switch cfg.Kind {
	case KindTCP:
		return DialTCP(ctx, cfg)
	case KindWS:
		return DialWS(ctx, cfg)
	}
	return nil, fmt.Errorf("transport: unknown kind %q", cfg.Kind)
}
