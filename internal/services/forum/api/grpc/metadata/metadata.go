// Package metadata defines the request headers the forum service reads and
// echoes, and the interceptor that guarantees every call a request id.
package metadata

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/agoraledger/forum/internal/platform/id"
)

const (
	// RequestIDHeader carries the correlation id. It becomes the request id
	// of every journal entry the call produces.
	RequestIDHeader = "x-forum-request-id"
	// AccountHeader names the caller when the service runs behind a trusted
	// identity proxy.
	AccountHeader = "x-forum-account"
	// AuthorizationHeader carries a bearer token.
	AuthorizationHeader = "authorization"
	// LocaleHeader selects the language of error messages.
	LocaleHeader = "accept-language"
)

type contextKey string

const requestIDContextKey contextKey = "forum-request-id"

// RequestIDFromContext returns the request id stored by the interceptor.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDContextKey).(string)
	return value
}

// WithRequestID stores the request id in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// LocaleFromContext returns the Accept-Language value of the call.
func LocaleFromContext(ctx context.Context) string {
	return IncomingValue(ctx, LocaleHeader)
}

// IsPrintableASCII reports whether value is non-empty printable ASCII.
func IsPrintableASCII(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < 0x20 || value[i] > 0x7e {
			return false
		}
	}
	return true
}

// FirstValue returns the first printable value for key. Values with control
// characters are skipped so they never reach logs or the journal.
func FirstValue(md metadata.MD, key string) string {
	for mdKey, values := range md {
		if !strings.EqualFold(mdKey, key) {
			continue
		}
		for _, value := range values {
			if IsPrintableASCII(value) {
				return value
			}
		}
	}
	return ""
}

// IncomingValue returns the first printable incoming value for key.
func IncomingValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	return FirstValue(md, key)
}

// UnaryServerInterceptor attaches a request id to every call, generating
// one when the client sent none, and echoes it as a response header.
func UnaryServerInterceptor(idGenerator func() (string, error)) grpc.UnaryServerInterceptor {
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := IncomingValue(ctx, RequestIDHeader)
		if requestID == "" {
			generated, err := idGenerator()
			if err != nil {
				return nil, status.Errorf(codes.Internal, "generate request id: %v", err)
			}
			requestID = generated
		}
		ctx = WithRequestID(ctx, requestID)
		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
			return nil, status.Errorf(codes.Internal, "set response metadata: %v", err)
		}
		return handler(ctx, req)
	}
}

// Outgoing is the caller metadata a client attaches to forum calls.
type Outgoing struct {
	Account   string
	Token     string
	RequestID string
	Locale    string
}

// OutgoingContext appends the non-empty fields of o to ctx.
func OutgoingContext(ctx context.Context, o Outgoing) context.Context {
	var pairs []string
	if o.Account != "" {
		pairs = append(pairs, AccountHeader, o.Account)
	}
	if o.Token != "" {
		pairs = append(pairs, AuthorizationHeader, "Bearer "+o.Token)
	}
	if o.RequestID != "" {
		pairs = append(pairs, RequestIDHeader, o.RequestID)
	}
	if o.Locale != "" {
		pairs = append(pairs, LocaleHeader, o.Locale)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
