package grid

// Config bounds a session's local behavior. Neither field alters the
// wire format.
type Config struct {
	// MaxTransferBytes caps how much data ToLocal and Iter may pull
	// from the server in one bulk transfer.
	MaxTransferBytes int64

	// PrintThreshold is the element count past which Str and Repr ask
	// the server for an elided rendering.
	PrintThreshold int64
}

const (
	defaultMaxTransferBytes = 1 << 30
	defaultPrintThreshold   = 100
)

// DefaultConfig returns the stock session limits.
func DefaultConfig() Config {
	return Config{
		MaxTransferBytes: defaultMaxTransferBytes,
		PrintThreshold:   defaultPrintThreshold,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.MaxTransferBytes <= 0 {
		c.MaxTransferBytes = defaultMaxTransferBytes
	}
	if c.PrintThreshold <= 0 {
		c.PrintThreshold = defaultPrintThreshold
	}
	return c
}
