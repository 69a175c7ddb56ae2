package forumctl

import (
	"github.com/spf13/cobra"

	"github.com/agoraledger/forum/internal/services/forum/genesis"
)

func newGenesisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Inspect genesis documents",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a genesis file and print the settings it selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := genesis.Load(args[0])
			if err != nil {
				return err
			}
			settings := cfg.Settings()
			sudo := cfg.Sudo
			if sudo == "" {
				sudo = "(none)"
			}
			printf(cmd, "sudo: %s\n", sudo)
			printf(cmd, "members: %d\n", len(cfg.Members))
			printf(cmd, "max category depth: %d\n", settings.MaxCategoryDepth)
			for _, row := range []struct {
				name string
				min  int
				max  int
			}{
				{"category title", int(settings.Constraints.CategoryTitle.Min), settings.Constraints.CategoryTitle.Max()},
				{"category description", int(settings.Constraints.CategoryDescription.Min), settings.Constraints.CategoryDescription.Max()},
				{"thread title", int(settings.Constraints.ThreadTitle.Min), settings.Constraints.ThreadTitle.Max()},
				{"post text", int(settings.Constraints.PostText.Min), settings.Constraints.PostText.Max()},
				{"thread rationale", int(settings.Constraints.ThreadModerationRationale.Min), settings.Constraints.ThreadModerationRationale.Max()},
				{"post rationale", int(settings.Constraints.PostModerationRationale.Min), settings.Constraints.PostModerationRationale.Max()},
			} {
				printf(cmd, "%s: %d..%d\n", row.name, row.min, row.max)
			}
			return nil
		},
	})
	return cmd
}
