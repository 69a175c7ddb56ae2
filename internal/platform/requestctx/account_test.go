package requestctx

import (
	"context"
	"testing"
)

func TestAccountIDRoundTrip(t *testing.T) {
	ctx := WithAccountID(context.Background(), "alice")
	got, ok := AccountIDFromContext(ctx)
	if !ok || got != "alice" {
		t.Fatalf("account = %q (%v), want alice", got, ok)
	}
}

func TestAccountIDMissing(t *testing.T) {
	if _, ok := AccountIDFromContext(context.Background()); ok {
		t.Fatal("expected no account")
	}
	if _, ok := AccountIDFromContext(WithAccountID(context.Background(), "")); ok {
		t.Fatal("expected empty account to be treated as missing")
	}
}
