package membership

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
)

// DefaultRedisKey is the set holding member accounts.
const DefaultRedisKey = "forum:members"

// Redis reads membership from a Redis set maintained by the host.
type Redis struct {
	client *redis.Client
	key    string
}

var _ Registry = (*Redis)(nil)

// NewRedis returns a registry over the set at key. An empty key selects
// DefaultRedisKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// GetForumUser implements Registry.
func (r *Redis) GetForumUser(ctx context.Context, account forum.AccountID) (ForumUser, bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, string(account)).Result()
	if err != nil {
		return ForumUser{}, false, fmt.Errorf("lookup member %s: %w", account, err)
	}
	if !ok {
		return ForumUser{}, false, nil
	}
	return ForumUser{Account: account}, true, nil
}

// Add registers accounts. Used to seed the set from genesis.
func (r *Redis) Add(ctx context.Context, accounts ...forum.AccountID) error {
	if len(accounts) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(accounts))
	for _, account := range accounts {
		members = append(members, string(account))
	}
	if err := r.client.SAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("add members: %w", err)
	}
	return nil
}
