package forumctl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	platformgrpc "github.com/agoraledger/forum/internal/platform/grpc"
	"github.com/agoraledger/forum/internal/platform/timeouts"
	forumgrpc "github.com/agoraledger/forum/internal/services/forum/api/grpc/forum"
	grpcmeta "github.com/agoraledger/forum/internal/services/forum/api/grpc/metadata"
)

const defaultAddr = "localhost:8090"

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newHealthCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Wait until the daemon reports SERVING",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := platformgrpc.DialWithHealth(cmd.Context(), addr, forumgrpc.ServiceName, timeouts.GRPCDial, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			printf(cmd, "%s SERVING\n", addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("FORUM_ADDR", defaultAddr), "Daemon address")
	return cmd
}

type callOptions struct {
	addr string
	grpcmeta.Outgoing
}

func newCallCommand() *cobra.Command {
	var opts callOptions
	cmd := &cobra.Command{
		Use:   "call <method> [json]",
		Short: "Invoke a forum RPC with a JSON request",
		Example: `  forumctl call CreateCategory '{"title":"General discussion","description":"Anything goes"}' --account root
  forumctl call ListEvents '{"filter":"type = \"post.added\""}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := new(structpb.Struct)
			if len(args) == 2 {
				if err := protojson.Unmarshal([]byte(args[1]), req); err != nil {
					return fmt.Errorf("parse request: %w", err)
				}
			}

			conn, err := platformgrpc.DialWithHealth(cmd.Context(), opts.addr, forumgrpc.ServiceName, timeouts.GRPCDial, nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(grpcmeta.OutgoingContext(cmd.Context(), opts.Outgoing), timeouts.GRPCRequest)
			defer cancel()
			resp, err := forumgrpc.NewClient(conn).Call(ctx, args[0], req)
			if err != nil {
				return err
			}
			out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
			if err != nil {
				return fmt.Errorf("render response: %w", err)
			}
			printf(cmd, "%s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", envOr("FORUM_ADDR", defaultAddr), "Daemon address")
	cmd.Flags().StringVar(&opts.Account, "account", os.Getenv("FORUM_ACCOUNT"), "Caller account (trusted-header mode)")
	cmd.Flags().StringVar(&opts.Token, "token", os.Getenv("FORUM_TOKEN"), "Caller bearer token (token mode)")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "Request id; the daemon generates one when empty")
	cmd.Flags().StringVar(&opts.Locale, "locale", "", "Preferred locale for error messages")
	return cmd
}
