// Package main is the entry point for the taskctl CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskctl/internal/backend/restapi"
	"taskctl/internal/cli"
	"taskctl/internal/commands"
	"taskctl/internal/config"
	"taskctl/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		opts := restapi.Options{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Log:     cfg.Log(),
		}
		if cfg.Session != nil {
			opts.Tokens = cfg.Session
		}
		return restapi.New(opts), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
