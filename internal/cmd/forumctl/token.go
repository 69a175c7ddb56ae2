package forumctl

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agoraledger/forum/internal/services/forum/api/grpc/auth"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage caller tokens",
	}
	var (
		key    string
		issuer string
		ttl    time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue <account>",
		Short: "Sign a token naming account as the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				return errors.New("signing key is required (--key or FORUM_JWT_SIGNING_KEY)")
			}
			cfg := auth.Config{SigningKey: []byte(key), Issuer: issuer}
			token, err := cfg.IssueToken(args[0], ttl)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", token)
			return nil
		},
	}
	issue.Flags().StringVar(&key, "key", os.Getenv("FORUM_JWT_SIGNING_KEY"), "HMAC signing key")
	issue.Flags().StringVar(&issuer, "issuer", os.Getenv("FORUM_JWT_ISSUER"), "Token issuer")
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.AddCommand(issue)
	return cmd
}
