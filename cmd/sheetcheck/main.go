// Command sheetcheck validates, converts and lints sheets from the shell
// using the same engine as the HTTP server.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetcheck/internal/logging"
)

const (
	exitInvalid = 1
	exitUsage   = 2
	exitIO      = 3
)

// codeError carries the process exit code for a failed command.
type codeError struct {
	code int
	err  error
}

func (e *codeError) Error() string { return e.err.Error() }
func (e *codeError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &codeError{code: code, err: err}
}

// errInvalid is returned by check when the sheet has validation errors.
// The report has already been printed.
var errInvalid = errors.New("sheet has validation errors")

func newRootCmd(stderr io.Writer) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "sheetcheck",
		Short:         "Validate spreadsheets and manage business rule sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(stderr, logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newCheckCmd(), newConvertCmd(), newRulesCmd())
	return root
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, errInvalid) {
		return exitInvalid
	}

	fmt.Fprintln(stderr, "error:", err)
	var ce *codeError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitUsage
}
