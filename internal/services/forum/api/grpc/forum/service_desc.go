package forum

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "forum.v1.ForumService"

// Method names.
const (
	MethodSetForumSudo   = "SetForumSudo"
	MethodCreateCategory = "CreateCategory"
	MethodUpdateCategory = "UpdateCategory"
	MethodCreateThread   = "CreateThread"
	MethodModerateThread = "ModerateThread"
	MethodAddPost        = "AddPost"
	MethodEditPostText   = "EditPostText"
	MethodModeratePost   = "ModeratePost"
	MethodGetCategory    = "GetCategory"
	MethodGetThread      = "GetThread"
	MethodGetPost        = "GetPost"
	MethodGetForumSudo   = "GetForumSudo"
	MethodListEvents     = "ListEvents"
)

// ForumServer is the server API for the forum service. Requests and
// responses are JSON-shaped structpb messages.
type ForumServer interface {
	SetForumSudo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateThread(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ModerateThread(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddPost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditPostText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ModeratePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetThread(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetForumSudo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ForumServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func handler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ForumServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ForumServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the forum service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ForumServer)(nil),
	Methods: []grpc.MethodDesc{
		handler(MethodSetForumSudo, ForumServer.SetForumSudo),
		handler(MethodCreateCategory, ForumServer.CreateCategory),
		handler(MethodUpdateCategory, ForumServer.UpdateCategory),
		handler(MethodCreateThread, ForumServer.CreateThread),
		handler(MethodModerateThread, ForumServer.ModerateThread),
		handler(MethodAddPost, ForumServer.AddPost),
		handler(MethodEditPostText, ForumServer.EditPostText),
		handler(MethodModeratePost, ForumServer.ModeratePost),
		handler(MethodGetCategory, ForumServer.GetCategory),
		handler(MethodGetThread, ForumServer.GetThread),
		handler(MethodGetPost, ForumServer.GetPost),
		handler(MethodGetForumSudo, ForumServer.GetForumSudo),
		handler(MethodListEvents, ForumServer.ListEvents),
	},
	Metadata: "forum/v1/forum.proto",
}

// RegisterForumServer registers srv on s.
func RegisterForumServer(s grpc.ServiceRegistrar, srv ForumServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the forum service by method name.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient returns a client over conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes method with req.
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
