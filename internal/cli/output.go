package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/snapledger/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (scenarios failed, traversal bound, etc.)
	ExitCommandError = 2 // Command error (invalid input, config, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the output.
	Reported bool
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

// IsReported reports whether err was already written by an OutputFormatter.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_VALIDATION", "E_TRAVERSAL_BOUND", etc.
	Message string `json:"message"`           // human-readable message
	Field   string `json:"field,omitempty"`   // offending input for validation errors
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result. Text mode prints text; JSON mode
// wraps data in a CLIResponse.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}

	_, err := io.WriteString(f.Writer, text)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.writeError(&CLIError{Code: code, Message: message, Details: details})
}

func (f *OutputFormatter) writeError(e *CLIError) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "error", Error: e})
	}

	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", e.Code, e.Message)
	if f.Verbose && e.Details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", e.Details)
	}
	return nil
}

// Fail reports err and returns an ExitError carrying the matching exit
// code. Core validation errors exit with ExitCommandError; everything else
// with ExitFailure.
func (f *OutputFormatter) Fail(err error) error {
	cliErr, code := classify(err)
	if werr := f.writeError(cliErr); werr != nil {
		return werr
	}
	return &ExitError{Code: code, Message: cliErr.Message, Err: err, Reported: true}
}

func classify(err error) (*CLIError, int) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return &CLIError{Code: "E_COMMAND", Message: err.Error()}, exitErr.Code
	}

	var coreErr *ir.Error
	if errors.As(err, &coreErr) {
		e := &CLIError{
			Code:    "E_" + string(coreErr.Code),
			Message: coreErr.Message,
			Field:   coreErr.Field,
		}
		if len(coreErr.Details) > 0 {
			e.Details = coreErr.Details
		}
		if coreErr.Code == ir.ErrCodeValidation {
			return e, ExitCommandError
		}
		return e, ExitFailure
	}

	return &CLIError{Code: "E_INTERNAL", Message: err.Error()}, ExitFailure
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
