// Package main provides the onboard CLI, which drives a browser through the
// target application's signup flow and stores the resulting account id and
// API token.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
