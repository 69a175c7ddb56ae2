package forumctl

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	server "github.com/agoraledger/forum/internal/services/forum/app"
	"github.com/agoraledger/forum/internal/services/forum/domain/replay"
	"github.com/agoraledger/forum/internal/services/forum/genesis"
)

func newJournalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the event journal",
	}
	var (
		ledger ledgerFlags
		until  uint64
	)
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check every hash link of the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := server.OpenLedger(ctx, ledger.config())
			if err != nil {
				return err
			}
			defer closeLedger(store)

			result, err := replay.Verify(ctx, store, replay.Options{UntilSeq: until})
			if err != nil {
				return fmt.Errorf("verify journal: %w", err)
			}
			printf(cmd, "verified %d events, head seq %d chain %s\n", result.Applied, result.LastSeq, result.ChainHash)
			return nil
		},
	}
	ledger.bind(verify, "", "Ledger")
	verify.Flags().Uint64Var(&until, "until", 0, "Stop after this seq (0 checks everything)")
	cmd.AddCommand(verify)
	return cmd
}

func newReplayCommand() *cobra.Command {
	var (
		from, to    ledgerFlags
		genesisPath string
		until       uint64
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a ledger from another ledger's journal",
		Long: `Replay seeds the target from genesis when it is empty, then applies the
source journal after the target's head. Every re-sealed event must reproduce
the source chain hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := genesis.Config{}
			if genesisPath != "" {
				var err error
				if cfg, err = genesis.Load(genesisPath); err != nil {
					return err
				}
			}

			source, err := server.OpenLedger(ctx, from.config())
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer closeLedger(source)
			target, err := server.OpenLedger(ctx, to.config())
			if err != nil {
				return fmt.Errorf("open target: %w", err)
			}
			defer closeLedger(target)

			if _, err := cfg.Apply(ctx, target); err != nil {
				return err
			}
			result, err := replay.Replay(ctx, source, target, replay.Options{UntilSeq: until})
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}
			printf(cmd, "replayed %d events, head seq %d chain %s\n", result.Applied, result.LastSeq, result.ChainHash)
			return nil
		},
	}
	from.bind(cmd, "from", "Source ledger")
	to.bind(cmd, "to", "Target ledger")
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "Genesis file applied to an empty target")
	cmd.Flags().Uint64Var(&until, "until", 0, "Stop after this seq (0 replays everything)")
	return cmd
}

type closer interface{ Close() error }

func closeLedger(c closer) {
	if err := c.Close(); err != nil {
		log.Printf("close ledger: %v", err)
	}
}
