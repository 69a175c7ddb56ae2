// Package redisclient opens the Redis connection shared by the event stream
// sink and the membership registry.
package redisclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Config selects a Redis server.
type Config struct {
	Addr     string `env:"FORUM_REDIS_ADDR"`
	Password string `env:"FORUM_REDIS_PASSWORD"`
	DB       int    `env:"FORUM_REDIS_DB" envDefault:"0"`
}

// Enabled reports whether an address is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// Connect creates a client and verifies the connection with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Printf("redis connected addr=%s db=%d", cfg.Addr, cfg.DB)
	return client, nil
}
