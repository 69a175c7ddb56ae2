package otel

import (
	"context"
	"strings"
	"testing"
)

func TestSetupIsNoopWithoutEndpoint(t *testing.T) {
	for _, tt := range []struct {
		name, enabled, endpoint string
	}{
		{"no endpoint", "true", ""},
		{"disabled", "false", "http://localhost:4318"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FORUM_OTEL_ENABLED", tt.enabled)
			t.Setenv("FORUM_OTEL_ENDPOINT", tt.endpoint)
			shutdown, err := Setup(context.Background(), "forumd-test")
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}

func TestSetupRejectsBadRatio(t *testing.T) {
	t.Setenv("FORUM_OTEL_SAMPLE_RATIO", "half")
	if _, err := Setup(context.Background(), "forumd-test"); err == nil {
		t.Fatal("expected env parse error")
	}
}

func TestInstallWithEndpoint(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation; nothing is exported.
	shutdown, err := Install(context.Background(), "forumd-test", Config{Enabled: true, Endpoint: "http://192.0.2.1:4318", SampleRatio: 1})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestConfigSampler(t *testing.T) {
	if got := (Config{SampleRatio: 1}).sampler().Description(); got != "AlwaysOnSampler" {
		t.Fatalf("sampler = %s", got)
	}
	if got := (Config{SampleRatio: 0.25}).sampler().Description(); !strings.Contains(got, "TraceIDRatioBased{0.25}") {
		t.Fatalf("sampler = %s", got)
	}
}
