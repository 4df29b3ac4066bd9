// Package lifecycle tracks whether the process is draining. The flag is set
// once on SIGTERM/SIGINT and read on every health check.
package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown marks the process as draining. While set, /health answers
// 503 shutting-down so load balancers stop routing new traffic here.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
