// Package metrics provides operational metrics collection.
//
// # Metric Categories
//
//   - Commands: outcome counts and decision latency by command type
//   - Sinks: delivery results by sink
//   - gRPC: request counts by method and status code
//
// # Integration
//
// Collectors register against a caller supplied prometheus.Registerer so
// tests can use an isolated registry. Handler exposes a gatherer over HTTP
// for scraping.
package metrics
