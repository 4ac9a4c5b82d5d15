package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/dreams/internal/model"
	"github.com/Makepad-fr/dreams/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks a bad invocation (exit 2) as opposed to a runtime failure.
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func errUsage(format string, a ...any) error {
	return usageError{msg: fmt.Sprintf(format, a...)}
}

// Execute runs the dreams command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	ui.SetOutput(out, errOut)
	defer ui.SetOutput(nil, nil)

	app := &App{in: in, out: out}
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	app.close()
	if err == nil {
		return ExitOK
	}

	ui.Fail(err.Error())
	return exitCode(err)
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue), errors.Is(err, model.ErrEmptyName):
		return ExitUsage
	case strings.HasPrefix(err.Error(), "unknown command"),
		strings.HasPrefix(err.Error(), "unknown flag"),
		strings.HasPrefix(err.Error(), "unknown shorthand flag"):
		return ExitUsage
	}
	return ExitError
}

// exactArgs and minArgs report arity problems as usage errors.
func exactArgs(n int, usage string) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return errUsage("usage: %s", usage)
		}
		return nil
	}
}

func minArgs(n int, usage string) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return errUsage("usage: %s", usage)
		}
		return nil
	}
}
