package forumctl

import (
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	platformgrpc "github.com/agoraledger/forum/internal/platform/grpc"
	"github.com/agoraledger/forum/internal/platform/timeouts"
	forumgrpc "github.com/agoraledger/forum/internal/services/forum/api/grpc/forum"
	grpcmeta "github.com/agoraledger/forum/internal/services/forum/api/grpc/metadata"
	"github.com/agoraledger/forum/internal/services/forum/api/mcptools"
)

func newMCPCommand() *cobra.Command {
	var (
		addr     string
		identity grpcmeta.Outgoing
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve forum tools to an MCP client over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := platformgrpc.DialWithHealth(cmd.Context(), addr, forumgrpc.ServiceName, timeouts.GRPCDial, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			server := mcptools.NewServer(forumgrpc.NewClient(conn), identity)
			return mcptools.Run(cmd.Context(), server, &mcp.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("FORUM_ADDR", defaultAddr), "Daemon address")
	cmd.Flags().StringVar(&identity.Account, "account", os.Getenv("FORUM_ACCOUNT"), "Account the tools act as (trusted-header mode)")
	cmd.Flags().StringVar(&identity.Token, "token", os.Getenv("FORUM_TOKEN"), "Bearer token the tools present (token mode)")
	return cmd
}
