package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agoraledger/forum/internal/cmd/forumctl"
	entrypoint "github.com/agoraledger/forum/internal/platform/cmd"
)

func main() {
	entrypoint.SetLogPrefix(entrypoint.ServiceForumctl)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := forumctl.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "forumctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}
