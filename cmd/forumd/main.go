package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agoraledger/forum/internal/cmd/forumd"
	entrypoint "github.com/agoraledger/forum/internal/platform/cmd"
)

func main() {
	cfg, err := forumd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	entrypoint.SetLogPrefix(entrypoint.ServiceForumd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := forumd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
