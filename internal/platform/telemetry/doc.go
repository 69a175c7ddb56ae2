// Package telemetry groups the operational observability of the forum.
//
// The event journal is the canonical record of what the forum did and lives
// with the ledger storage. Telemetry covers how the process is doing:
// command outcomes and latency, sink delivery and gRPC traffic, exported in
// Prometheus format from the metrics subpackage. Traces are configured by
// the platform otel package.
package telemetry
