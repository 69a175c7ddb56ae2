package metadata

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// headerStream records headers set through grpc.SetHeader.
type headerStream struct {
	header metadata.MD
}

func (s *headerStream) Method() string { return "/forum.v1.ForumService/AddPost" }

func (s *headerStream) SetHeader(md metadata.MD) error {
	s.header = metadata.Join(s.header, md)
	return nil
}

func (s *headerStream) SendHeader(md metadata.MD) error { return s.SetHeader(md) }

func (s *headerStream) SetTrailer(metadata.MD) error { return nil }

func TestRequestIDContextHelpers(t *testing.T) {
	if RequestIDFromContext(nil) != "" {
		t.Fatal("expected empty request id for nil context")
	}
	ctx := WithRequestID(nil, "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected request id req-1, got %s", got)
	}
}

func TestIsPrintableASCII(t *testing.T) {
	if IsPrintableASCII("") {
		t.Fatal("expected empty string to be non-printable")
	}
	if !IsPrintableASCII("alice") {
		t.Fatal("expected printable ascii to be accepted")
	}
	if IsPrintableASCII("line\n") {
		t.Fatal("expected newline to be non-printable")
	}
}

func TestFirstValueSkipsControlCharacters(t *testing.T) {
	md := metadata.MD{"X-Forum-Account": {"\n", "alice"}}
	if got := FirstValue(md, AccountHeader); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
	if FirstValue(metadata.MD{}, AccountHeader) != "" {
		t.Fatal("expected empty value for empty metadata")
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(LocaleHeader, "pt-BR,pt;q=0.9"))
	if got := LocaleFromContext(ctx); got != "pt-BR,pt;q=0.9" {
		t.Fatalf("locale = %q", got)
	}
}

func TestUnaryServerInterceptorKeepsClientRequestID(t *testing.T) {
	stream := &headerStream{}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-client"))
	ctx = grpc.NewContextWithServerTransportStream(ctx, stream)

	interceptor := UnaryServerInterceptor(func() (string, error) { return "generated", nil })
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		if got := RequestIDFromContext(ctx); got != "req-client" {
			t.Fatalf("request id = %q", got)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if got := stream.header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-client" {
		t.Fatalf("response header = %v", got)
	}
}

func TestUnaryServerInterceptorGeneratesRequestID(t *testing.T) {
	ctx := grpc.NewContextWithServerTransportStream(context.Background(), &headerStream{})
	interceptor := UnaryServerInterceptor(func() (string, error) { return "generated", nil })
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		if got := RequestIDFromContext(ctx); got != "generated" {
			t.Fatalf("request id = %q", got)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}

func TestUnaryServerInterceptorGeneratorFailure(t *testing.T) {
	interceptor := UnaryServerInterceptor(func() (string, error) { return "", errors.New("entropy") })
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(context.Context, any) (any, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected internal, got %v", err)
	}
}

func TestOutgoingContext(t *testing.T) {
	ctx := OutgoingContext(context.Background(), Outgoing{Account: "alice", Token: "t0k", Locale: "pt-BR"})
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("expected outgoing metadata")
	}
	if got := FirstValue(md, AccountHeader); got != "alice" {
		t.Fatalf("account = %q", got)
	}
	if got := FirstValue(md, AuthorizationHeader); got != "Bearer t0k" {
		t.Fatalf("authorization = %q", got)
	}
	if got := FirstValue(md, LocaleHeader); got != "pt-BR" {
		t.Fatalf("locale = %q", got)
	}
	if got := FirstValue(md, RequestIDHeader); got != "" {
		t.Fatalf("request id = %q", got)
	}

	bare := context.Background()
	if OutgoingContext(bare, Outgoing{}) != bare {
		t.Fatal("empty outgoing should return ctx unchanged")
	}
}
