package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

const (
	// DefaultStream is the stream events are appended to.
	DefaultStream = "forum:events"
	// DefaultMaxLen approximately caps the stream length.
	DefaultMaxLen = 100_000
)

// Redis appends events to a Redis stream. Entry ids are assigned by Redis;
// the journal seq travels as a field.
type Redis struct {
	client *redis.Client
	stream string
	maxLen int64
}

var _ Sink = (*Redis)(nil)

// NewRedis returns a stream sink. Zero values select the defaults.
func NewRedis(client *redis.Client, stream string, maxLen int64) *Redis {
	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Redis{client: client, stream: stream, maxLen: maxLen}
}

// Name implements Sink.
func (r *Redis) Name() string { return "redis" }

// Publish implements Sink. Entries are pipelined in one round trip.
func (r *Redis) Publish(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, evt := range events {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: r.stream,
			MaxLen: r.maxLen,
			Approx: true,
			Values: streamValues(evt),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}

func streamValues(evt event.Event) map[string]interface{} {
	return map[string]interface{}{
		"seq":         strconv.FormatUint(evt.Seq, 10),
		"type":        string(evt.Type),
		"entity_type": evt.EntityType,
		"entity_id":   evt.EntityID,
		"actor_id":    evt.ActorID,
		"request_id":  evt.RequestID,
		"block":       strconv.FormatUint(evt.Block, 10),
		"ts":          strconv.FormatInt(evt.Timestamp.UnixMilli(), 10),
		"payload":     string(evt.PayloadJSON),
		"hash":        evt.Hash,
		"chain_hash":  evt.ChainHash,
	}
}
