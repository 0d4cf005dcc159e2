// Package config loads gridctl.toml files and converts them into the
// session and transport configurations the client packages consume.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/gridctl/internal/grid"
	"github.com/danmuck/gridctl/internal/transport"
)

// fileConfig is the gridctl.toml key mapping.
type fileConfig struct {
	Addr               string `toml:"addr"`
	Transport          string `toml:"transport"`
	LogLevel           string `toml:"log_level"`
	ConnectTimeoutMS   int64  `toml:"connect_timeout_ms"`
	ReadTimeoutMS      int64  `toml:"read_timeout_ms"`
	WriteTimeoutMS     int64  `toml:"write_timeout_ms"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
	MaxReplyBytes      int64  `toml:"max_reply_bytes"`
	MaxTransferBytes   int64  `toml:"max_transfer_bytes"`
	PrintThreshold     int64  `toml:"print_threshold"`
	SecurityMode       string `toml:"security_mode"`
	TLSEnabled         bool   `toml:"tls_enabled"`
	TLSMutual          bool   `toml:"tls_mutual"`
	TLSCertFile        string `toml:"tls_cert_file"`
	TLSKeyFile         string `toml:"tls_key_file"`
	TLSCAFile          string `toml:"tls_ca_file"`
	TLSServerName      string `toml:"tls_server_name"`
	TLSInsecureSkip    bool   `toml:"tls_insecure_skip_verify"`
}

// Config is the resolved runtime configuration for a gridctl session.
type Config struct {
	Transport transport.Config
	Session   grid.Config
	LogLevel  string
}

// Default returns the configuration used when no file is given. The
// address still has to come from the file or a flag.
func Default() Config {
	return Config{
		Transport: transport.DefaultConfig(),
		Session:   grid.DefaultConfig(),
	}
}

// Load reads path and overlays the defined keys onto Default. Unknown
// transport kinds and malformed security modes surface immediately so
// a bad file fails at startup, not at first use.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load gridctl config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Transport.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("transport") {
		cfg.Transport.Kind = transport.Kind(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("connect_timeout_ms") {
		cfg.Transport.ConnectTimeout = time.Duration(raw.ConnectTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("read_timeout_ms") {
		cfg.Transport.ReadTimeout = time.Duration(raw.ReadTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("write_timeout_ms") {
		cfg.Transport.WriteTimeout = time.Duration(raw.WriteTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.Transport.MaxConnectAttempts = raw.MaxConnectAttempts
	}
	if meta.IsDefined("max_reply_bytes") {
		cfg.Transport.MaxReplyBytes = raw.MaxReplyBytes
	}
	if meta.IsDefined("max_transfer_bytes") {
		cfg.Session.MaxTransferBytes = raw.MaxTransferBytes
	}
	if meta.IsDefined("print_threshold") {
		cfg.Session.PrintThreshold = raw.PrintThreshold
	}
	if meta.IsDefined("security_mode") {
		cfg.Transport.SecurityMode = transport.SecurityMode(strings.TrimSpace(raw.SecurityMode))
	}
	if meta.IsDefined("tls_enabled") {
		cfg.Transport.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_mutual") {
		cfg.Transport.TLS.Mutual = raw.TLSMutual
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.Transport.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.Transport.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}
	if meta.IsDefined("tls_ca_file") {
		cfg.Transport.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}
	if meta.IsDefined("tls_server_name") {
		cfg.Transport.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}
	if meta.IsDefined("tls_insecure_skip_verify") {
		cfg.Transport.TLS.InsecureSkipVerify = raw.TLSInsecureSkip
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the pieces a bad file most often gets wrong.
func (c Config) Validate() error {
	switch c.Transport.Kind {
	case transport.KindTCP, transport.KindWS:
	default:
		return fmt.Errorf("load gridctl config: unknown transport %q (expected tcp or ws)", c.Transport.Kind)
	}
	if err := c.Transport.ValidateClient(); err != nil {
		return fmt.Errorf("load gridctl config: %w", err)
	}
	return nil
}
