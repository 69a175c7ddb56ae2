package forumd

import (
	"flag"
	"io"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("forumd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8090" {
		t.Fatalf("expected default addr :8090, got %q", cfg.Addr)
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %q", cfg.Ledger.Backend)
	}
	if cfg.BlockTime != 6*time.Second {
		t.Fatalf("expected 6s block time, got %s", cfg.BlockTime)
	}
	if !cfg.LogEvents {
		t.Fatal("expected event logging on by default")
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("FORUM_LEDGER_BACKEND", "badger")
	t.Setenv("FORUM_REDIS_ADDR", "localhost:6379")
	t.Setenv("FORUM_BLOCK_TIME", "12s")

	fs := flag.NewFlagSet("forumd", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-addr", "127.0.0.1:9999", "-ledger-path", "/tmp/forum"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.Ledger.Backend != "badger" || cfg.Ledger.Path != "/tmp/forum" {
		t.Fatalf("ledger = %+v", cfg.Ledger)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.BlockTime != 12*time.Second {
		t.Fatalf("block time = %s", cfg.BlockTime)
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("forumd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-port", "1"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}
