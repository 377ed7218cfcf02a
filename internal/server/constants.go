package server

import "time"

// HTTP server constants
const (
	// HTTP timeouts
	HTTPReadTimeout  = 15 * time.Second
	HTTPWriteTimeout = 15 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Shutdown timeout
	HTTPShutdownTimeout = 30 * time.Second

	// Search limits
	MaxSearchLimit     = 100
	DefaultSearchLimit = 10
)
