package core

import "time"

// Server defaults, overridable through Config.
const (
	DefaultAddr           = "127.0.0.1:8080"
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultMaxConnections = 4096

	// readBufferSize bounds a single request's line and header size.
	readBufferSize = 8192
)
