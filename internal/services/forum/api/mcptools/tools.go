// Package mcptools exposes forum reads and member commands as MCP tools
// backed by the forum gRPC service.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/agoraledger/forum/internal/platform/timeouts"
	forumgrpc "github.com/agoraledger/forum/internal/services/forum/api/grpc/forum"
	grpcmeta "github.com/agoraledger/forum/internal/services/forum/api/grpc/metadata"
)

const (
	serverName    = "forum"
	serverVersion = "0.1.0"
)

// Caller invokes a forum RPC by method name.
type Caller interface {
	Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// Response wraps the RPC response document.
type Response struct {
	Data map[string]any `json:"data" jsonschema:"forum service response"`
}

// CategoryInput selects a category.
type CategoryInput struct {
	CategoryID uint64 `json:"category_id" jsonschema:"category identifier"`
}

// ThreadInput selects a thread.
type ThreadInput struct {
	ThreadID uint64 `json:"thread_id" jsonschema:"thread identifier"`
}

// PostInput selects a post.
type PostInput struct {
	PostID uint64 `json:"post_id" jsonschema:"post identifier"`
}

// EmptyInput takes no arguments.
type EmptyInput struct{}

// ListEventsInput pages through the journal.
type ListEventsInput struct {
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter over type, entity_type, entity_id, actor_id, request_id, block, seq and ts"`
	PageSize  int32  `json:"page_size,omitempty" jsonschema:"maximum events to return"`
	PageToken string `json:"page_token,omitempty" jsonschema:"next_page_token from a previous call"`
}

// CreateThreadInput opens a thread.
type CreateThreadInput struct {
	CategoryID uint64 `json:"category_id" jsonschema:"category to create the thread in"`
	Title      string `json:"title" jsonschema:"thread title"`
	Text       string `json:"text" jsonschema:"text of the first post"`
}

// AddPostInput replies to a thread.
type AddPostInput struct {
	ThreadID uint64 `json:"thread_id" jsonschema:"thread to reply to"`
	Text     string `json:"text" jsonschema:"post text"`
}

// EditPostTextInput replaces a post's text.
type EditPostTextInput struct {
	PostID uint64 `json:"post_id" jsonschema:"post to edit; only its author may edit it"`
	Text   string `json:"text" jsonschema:"new post text"`
}

// NewServer returns an MCP server whose tools call client as identity.
func NewServer(client Caller, identity grpcmeta.Outgoing) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_get_category",
		Description: "Get a category by id",
	}, handler[CategoryInput](client, identity, forumgrpc.MethodGetCategory))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_get_thread",
		Description: "Get a thread by id",
	}, handler[ThreadInput](client, identity, forumgrpc.MethodGetThread))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_get_post",
		Description: "Get a post by id, including its edit history",
	}, handler[PostInput](client, identity, forumgrpc.MethodGetPost))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_get_sudo",
		Description: "Get the current forum sudo account",
	}, handler[EmptyInput](client, identity, forumgrpc.MethodGetForumSudo))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_list_events",
		Description: "List journal events in sequence order",
	}, handler[ListEventsInput](client, identity, forumgrpc.MethodListEvents))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_create_thread",
		Description: "Create a thread with its first post",
	}, handler[CreateThreadInput](client, identity, forumgrpc.MethodCreateThread))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_add_post",
		Description: "Add a post to a thread",
	}, handler[AddPostInput](client, identity, forumgrpc.MethodAddPost))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "forum_edit_post_text",
		Description: "Replace the text of a post you authored",
	}, handler[EditPostTextInput](client, identity, forumgrpc.MethodEditPostText))
	return server
}

func handler[I any](client Caller, identity grpcmeta.Outgoing, method string) mcp.ToolHandlerFor[I, Response] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input I) (*mcp.CallToolResult, Response, error) {
		req, err := toStruct(input)
		if err != nil {
			return nil, Response{}, err
		}
		callCtx, cancel := context.WithTimeout(grpcmeta.OutgoingContext(ctx, identity), timeouts.GRPCRequest)
		defer cancel()

		resp, err := client.Call(callCtx, method, req)
		if err != nil {
			return nil, Response{}, fmt.Errorf("%s failed: %w", method, err)
		}
		return nil, Response{Data: resp.AsMap()}, nil
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return out, nil
}

// Run serves the tools over transport until ctx ends or the peer disconnects.
func Run(ctx context.Context, server *mcp.Server, transport mcp.Transport) error {
	if err := server.Run(ctx, transport); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}
