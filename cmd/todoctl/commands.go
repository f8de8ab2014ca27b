package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/repository/store"
	"github.com/sakif/todolist/internal/service"
)

// migrate opens the store, which applies pending migrations (goose for
// Postgres, CREATE IF NOT EXISTS for SQLite, indexes for MongoDB), and
// closes it again.
func (c *cli) migrate(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("todoctl migrate", pflag.ContinueOnError)
	cfg, err := c.loadConfig(fs, args)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(c.stderr)

	st, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("migrate: closing store: %w", err)
	}

	fmt.Fprintln(c.stdout, "schema is up to date")
	return nil
}

// useradd registers an account through the same AuthService the HTTP
// handlers use, so validation and hashing are identical.
func (c *cli) useradd(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("todoctl useradd", pflag.ContinueOnError)
	name := fs.String("name", "", "display name (required)")
	email := fs.String("email", "", "login email (required)")

	cfg, err := c.loadConfig(fs, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" {
		return errors.New("useradd: --name and --email are required")
	}
	if err := cfg.ValidateSecret(); err != nil {
		return fmt.Errorf("useradd: %w", err)
	}
	logger := cfg.NewLogger(c.stderr)

	password, err := c.promptPassword()
	if err != nil {
		return fmt.Errorf("useradd: %w", err)
	}

	st, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("useradd: %w", err)
	}
	defer st.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("useradd: %w", err)
	}
	svc := service.NewAuthService(st.Users(), tokens, auth.NewPasswordService(cfg.BcryptCost), logger)

	user, err := svc.Register(ctx, *name, *email, password)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return fmt.Errorf("useradd: %s", appErr.Message)
		}
		return fmt.Errorf("useradd: %w", err)
	}

	logger.Debug("account created from the command line", slog.String("email", user.Email))
	fmt.Fprintf(c.stdout, "created user %s <%s>\n", user.Name, user.Email)
	return nil
}

// promptPassword reads the new account's password. On a terminal it asks
// twice with echo off; piped stdin supplies a single line.
func (c *cli) promptPassword() (string, error) {
	if !c.isTerminal(c.stdinFd) {
		line, err := bufio.NewReader(c.stdin).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil {
				return "", fmt.Errorf("reading password: %w", err)
			}
			return "", errors.New("password is empty")
		}
		return line, nil
	}

	fmt.Fprint(c.stderr, "Password: ")
	first, err := c.readPassword(c.stdinFd)
	fmt.Fprintln(c.stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(c.stderr, "Confirm password: ")
	second, err := c.readPassword(c.stdinFd)
	fmt.Fprintln(c.stderr)
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}

	if !bytes.Equal(first, second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password is empty")
	}
	return string(first), nil
}
