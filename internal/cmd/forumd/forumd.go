// Package forumd parses daemon flags and starts the forum server.
package forumd

import (
	"context"
	"flag"

	entrypoint "github.com/agoraledger/forum/internal/platform/cmd"
	server "github.com/agoraledger/forum/internal/services/forum/app"
)

// ParseConfig parses environment and flags into a server config.
func ParseConfig(fs *flag.FlagSet, args []string) (server.Config, error) {
	var cfg server.Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return server.Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The gRPC listen address")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "The Prometheus metrics listen address (empty disables)")
	fs.StringVar(&cfg.GenesisPath, "genesis", cfg.GenesisPath, "Path to the genesis YAML file")
	fs.StringVar(&cfg.Ledger.Backend, "ledger", cfg.Ledger.Backend, "Ledger backend: memory, sqlite or badger")
	fs.StringVar(&cfg.Ledger.Path, "ledger-path", cfg.Ledger.Path, "Ledger file or directory")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return server.Config{}, err
	}
	return cfg, nil
}

// Run starts the forum daemon.
func Run(ctx context.Context, cfg server.Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceForumd, func(ctx context.Context) error {
		return server.Run(ctx, cfg)
	})
}
