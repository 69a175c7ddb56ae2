// Package server composes the forum daemon.
//
// It opens the ledger, seeds it from genesis, and wires membership, event
// sinks, metrics and the gRPC forum service into a runnable server.
package server
