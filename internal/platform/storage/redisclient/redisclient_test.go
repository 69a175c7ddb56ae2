package redisclient

import (
	"context"
	"os"
	"testing"
)

func TestConnectRequiresAddr(t *testing.T) {
	if _, err := Connect(context.Background(), Config{Addr: "  "}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestConnectPings(t *testing.T) {
	addr := os.Getenv("FORUM_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("skipping integration test: redis not reachable: %v", err)
	}
	defer client.Close()
}
