package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/agoraledger/forum/internal/platform/storage/redisclient"
	"github.com/agoraledger/forum/internal/services/forum/api/grpc/auth"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
	"github.com/agoraledger/forum/internal/services/forum/membership"
	"github.com/agoraledger/forum/internal/services/forum/sink"
)

// Config holds daemon configuration. Every field is loaded from FORUM_*
// environment variables.
type Config struct {
	Addr        string `env:"FORUM_ADDR" envDefault:":8090"`
	MetricsAddr string `env:"FORUM_METRICS_ADDR"`
	GenesisPath string `env:"FORUM_GENESIS_PATH"`

	Ledger LedgerConfig
	Redis  redisclient.Config

	MembersKey        string `env:"FORUM_MEMBERS_KEY"`
	EventStream       string `env:"FORUM_EVENT_STREAM"`
	EventStreamMaxLen int64  `env:"FORUM_EVENT_STREAM_MAXLEN"`
	LogEvents         bool   `env:"FORUM_LOG_EVENTS" envDefault:"true"`

	JWTSigningKey string `env:"FORUM_JWT_SIGNING_KEY"`
	JWTIssuer     string `env:"FORUM_JWT_ISSUER"`

	// ChainStart anchors block numbering; block 0 begins at this instant.
	ChainStart time.Time     `env:"FORUM_CHAIN_START" envDefault:"2026-01-01T00:00:00Z"`
	BlockTime  time.Duration `env:"FORUM_BLOCK_TIME" envDefault:"6s"`
}

// Validate checks settings that env parsing cannot.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.BlockTime <= 0 {
		return fmt.Errorf("block time must be positive, got %s", c.BlockTime)
	}
	if c.EventStreamMaxLen < 0 {
		return fmt.Errorf("event stream max length must not be negative")
	}
	return c.Ledger.Validate()
}

// Clock returns the block clock the engine stamps commands with.
func (c Config) Clock() stamp.Clock {
	return stamp.BlockClock{
		GenesisTime: c.ChainStart,
		BlockTime:   c.BlockTime,
	}
}

// Auth returns the caller resolution settings.
func (c Config) Auth() auth.Config {
	var key []byte
	if c.JWTSigningKey != "" {
		key = []byte(c.JWTSigningKey)
	}
	return auth.Config{SigningKey: key, Issuer: c.JWTIssuer}
}

func (c Config) membersKey() string {
	if c.MembersKey == "" {
		return membership.DefaultRedisKey
	}
	return c.MembersKey
}

func (c Config) eventStream() string {
	if c.EventStream == "" {
		return sink.DefaultStream
	}
	return c.EventStream
}
