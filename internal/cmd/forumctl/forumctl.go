// Package forumctl implements the forum operator CLI.
package forumctl

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	entrypoint "github.com/agoraledger/forum/internal/platform/cmd"
	server "github.com/agoraledger/forum/internal/services/forum/app"
)

// NewRootCommand builds the forumctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Operate a forum ledger and daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newGenesisCommand(),
		newJournalCommand(),
		newReplayCommand(),
		newHealthCommand(),
		newCallCommand(),
		newTokenCommand(),
		newMCPCommand(),
	)
	return root
}

// Execute runs forumctl with telemetry configured.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceForumctl, func(ctx context.Context) error {
		return root.ExecuteContext(ctx)
	})
}

// ledgerFlags binds a ledger selection to a command's flags under prefix.
type ledgerFlags struct {
	backend string
	path    string
}

func (f *ledgerFlags) bind(cmd *cobra.Command, prefix, usage string) {
	name := "ledger"
	if prefix != "" {
		name = prefix
	}
	backend := os.Getenv("FORUM_LEDGER_BACKEND")
	if backend == "" {
		backend = server.BackendSQLite
	}
	cmd.Flags().StringVar(&f.backend, name, backend, usage+" backend: memory, sqlite or badger")
	cmd.Flags().StringVar(&f.path, name+"-path", os.Getenv("FORUM_LEDGER_PATH"), usage+" file or directory")
}

func (f ledgerFlags) config() server.LedgerConfig {
	return server.LedgerConfig{Backend: f.backend, Path: f.path}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
