// Command todoctl administers a todolist deployment from the shell.
//
//	todoctl migrate                       apply the schema of the configured store
//	todoctl useradd --name N --email E    create an account (password from stdin)
//
// Every command accepts the server's configuration flags (--config,
// --database-url, ...) and environment, so it always targets the same store
// as the server it sits next to.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sakif/todolist/internal/config"
)

func main() {
	c := &cli{
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		getenv:       os.Getenv,
		stdinFd:      int(os.Stdin.Fd()),
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}

	if err := c.run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "todoctl: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the process's I/O so commands can be driven from tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	stdinFd      int
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

const usage = `usage: todoctl <command> [flags]

commands:
  migrate    apply the schema of the configured store
  useradd    create an account; the password is read from the terminal
             without echo, or as one line from piped stdin

run "todoctl <command> --help" for the flags of a command
`

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.stderr, usage)
		return errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return c.migrate(ctx, rest)
	case "useradd":
		return c.useradd(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.stdout, usage)
		return nil
	default:
		fmt.Fprint(c.stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// loadConfig parses args with fs and resolves the shared configuration.
func (c *cli) loadConfig(fs *pflag.FlagSet, args []string) (*config.Config, error) {
	fs.SetOutput(c.stderr)
	return config.Load(fs, args, c.getenv)
}
