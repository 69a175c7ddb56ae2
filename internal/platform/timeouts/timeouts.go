// Package timeouts defines shared timeout constants used by forum binaries.
package timeouts

import "time"

// GRPCDial caps the wait time when forumctl dials the daemon.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single forumctl request.
const GRPCRequest = 5 * time.Second

// ReadHeader limits how long the metrics HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
