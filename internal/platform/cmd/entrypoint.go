// Package cmd holds the startup helpers shared by forumd and forumctl.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/agoraledger/forum/internal/platform/config"
	"github.com/agoraledger/forum/internal/platform/otel"
	"github.com/agoraledger/forum/internal/platform/timeouts"
)

// Service names, used for trace resources and log prefixes.
const (
	ServiceForumd   = "forumd"
	ServiceForumctl = "forumctl"
)

// SetLogPrefix points the standard logger at the service's bracketed prefix.
func SetLogPrefix(service string) {
	log.SetPrefix("[" + strings.ToUpper(strings.TrimSpace(service)) + "] ")
}

// ParseConfig loads FORUM_* environment values into cfg. Flags registered
// afterwards use them as defaults.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry sets up tracing for service, runs run, and flushes spans
// before returning run's error.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
