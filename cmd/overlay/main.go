// Package main provides the entry point for the overlay CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tarkovhub/overlay/cmd/overlay/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
