package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// zkage - CLI tool and API service for zero-knowledge age eligibility proofs
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
