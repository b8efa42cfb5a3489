// internal/cli/output.go
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	apperrors "offer-ledger/internal/common/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation was rejected or failed
	ExitCommandError = 2 // bad flags, unreadable config, unreachable backends
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error; plain errors map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// failed wraps a domain error so its code shows up in the message.
func failed(message string, err error) *ExitError {
	if code := apperrors.CodeOf(err); code != "" {
		message = fmt.Sprintf("%s [%s]", message, code)
	}
	return WrapExitError(ExitFailure, message, err)
}

// printer renders results as JSON or as a tab-aligned table.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) json(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table prints rows under header in text mode and v in json mode.
func (p printer) table(v interface{}, header []string, rows [][]string) error {
	if p.format == "json" {
		return p.json(v)
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	writeRow(tw, header)
	for _, r := range rows {
		writeRow(tw, r)
	}
	return tw.Flush()
}

// line prints text in text mode and v in json mode.
func (p printer) line(v interface{}, text string) error {
	if p.format == "json" {
		return p.json(v)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
