// Package main is the entry point for the todolist server.
//
// The main package stays minimal. It:
//  1. Loads configuration (defaults → YAML file → env → flags)
//  2. Builds the logger
//  3. Creates the server and blocks until shutdown
//
// All actual logic lives in internal/.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/sakif/todolist/internal/config"
	"github.com/sakif/todolist/internal/server"
)

// startupTimeout bounds connecting to the store and running migrations.
const startupTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "todolist: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("todolist", pflag.ContinueOnError)
	cfg, err := config.Load(fs, args, os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSecret(); err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until SIGINT/SIGTERM.
	return srv.Start()
}
