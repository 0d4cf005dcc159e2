package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes the commented gridctl.toml starting point.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(gridctlTemplate), 0o600)
}

const gridctlTemplate = `# gridctl client configuration

# grid server address (host:port, or a ws:// / wss:// URL for transport = "ws")
addr = "localhost:5555"

# transport kind: tcp (framed, default) or ws (WebSocket)
transport = "tcp"

# diagnostic verbosity: trace, debug, info, warn, error, disabled
log_level = "info"

connect_timeout_ms = 5000
read_timeout_ms = 30000
write_timeout_ms = 15000
max_connect_attempts = 3

# largest reply frame the transport will accept
max_reply_bytes = 1073741824

# largest array (in bytes) that to-local transfers and iteration may pull
max_transfer_bytes = 1073741824

# element count past which str/repr renderings are elided
print_threshold = 100

# security_mode = "development" permits plaintext; "production" demands
# verified mutual TLS
security_mode = "development"
tls_enabled = false
tls_mutual = false
tls_cert_file = ""
tls_key_file = ""
tls_ca_file = ""
tls_server_name = ""
tls_insecure_skip_verify = false
`
