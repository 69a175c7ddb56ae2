package membership

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
)

func TestStaticLookup(t *testing.T) {
	ctx := context.Background()
	reg := NewStatic("alice", " ", "bob")

	user, ok, err := reg.GetForumUser(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || user.Account != "alice" {
		t.Fatalf("lookup alice = %+v, %v", user, ok)
	}
	if _, ok, _ := reg.GetForumUser(ctx, ""); ok {
		t.Fatal("blank account must not be a member")
	}

	reg.Remove("bob")
	if _, ok, _ := reg.GetForumUser(ctx, "bob"); ok {
		t.Fatal("expected bob removed")
	}
}

func TestStaticHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewStatic("alice").GetForumUser(ctx, "alice"); err == nil {
		t.Fatal("expected context error")
	}
}

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("FORUM_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: redis not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLookup(t *testing.T) {
	ctx := context.Background()
	client := testRedisClient(t)
	key := "forum:test:members"
	t.Cleanup(func() { client.Del(ctx, key) })

	reg := NewRedis(client, key)
	if err := reg.Add(ctx, forum.AccountID("alice")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok, err := reg.GetForumUser(ctx, "alice"); err != nil || !ok {
		t.Fatalf("lookup alice = %v, %v", ok, err)
	}
	if _, ok, err := reg.GetForumUser(ctx, "mallory"); err != nil || ok {
		t.Fatalf("lookup mallory = %v, %v", ok, err)
	}
}
