package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation ran and failed (unknown user, corrupt data...)
	ExitCommandError = 2 // Command error (bad flags, config, store cannot be opened)
)

// ExitError represents an error with a specific exit code.
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer renders command results as JSON or as colored text.
//
// Colors come from fatih/color, which turns itself off when the writer is
// not a terminal (pipes, files, tests).
type printer struct {
	format string
	w      io.Writer

	heading *color.Color
	label   *color.Color
	good    *color.Color
	warn    *color.Color
}

func newPrinter(format string, w io.Writer) *printer {
	return &printer{
		format:  format,
		w:       w,
		heading: color.New(color.FgCyan, color.Bold),
		label:   color.New(color.FgCyan),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
	}
}

func (p *printer) json() bool {
	return p.format == "json"
}

// JSON writes v indented.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) Heading(format string, args ...any) {
	p.heading.Fprintf(p.w, format+"\n", args...)
}

// Field prints "label: value" with the label colored.
func (p *printer) Field(label string, value any) {
	p.label.Fprintf(p.w, "  %-20s", label+":")
	fmt.Fprintf(p.w, " %v\n", value)
}

func (p *printer) Good(format string, args ...any) {
	p.good.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Warn(format string, args ...any) {
	p.warn.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
