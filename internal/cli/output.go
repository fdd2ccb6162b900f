package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes. A run that completes but finds problems (operations
// left unlowered, invalid manifests, failed scenarios) exits with
// ExitFailure; a run that cannot complete exits with ExitCommandError.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit code a command wants main to use.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain, or
// ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON CLIResponse.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	// ErrWriter receives progress and per-operation diagnostics. Nil means
	// Writer.
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command writes in json mode.
// Status is "error" whenever Error is set, even when Data carries a partial
// result.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
	RunID  string      `json:"run_id,omitempty"`
}

// CLIError is the error half of a CLIResponse.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ResponseOption adds a field to a JSON response.
type ResponseOption func(*CLIResponse)

// WithRunID tags the response with the ledger run it was recorded under.
func WithRunID(id string) ResponseOption {
	return func(r *CLIResponse) { r.RunID = id }
}

// WithData attaches a payload to an error response, for commands that
// report a partial result alongside the failure.
func WithData(data interface{}) ResponseOption {
	return func(r *CLIResponse) { r.Data = data }
}

// Success writes data. Text mode prints it with fmt.
func (f *OutputFormatter) Success(data interface{}, opts ...ResponseOption) error {
	if f.Format != "json" {
		fmt.Fprintln(f.Writer, data)
		return nil
	}
	return f.writeJSON(CLIResponse{Status: "ok", Data: data}, opts)
}

// Error writes a failure. Text mode writes to Writer so the message sits
// next to the command's other output; details are shown only when verbose.
func (f *OutputFormatter) Error(code, message string, details interface{}, opts ...ResponseOption) error {
	if f.Format != "json" {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		if f.Verbose && details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", details)
		}
		return nil
	}
	cliErr := &CLIError{Code: code, Message: message, Details: details}
	return f.writeJSON(CLIResponse{Status: "error", Error: cliErr}, opts)
}

func (f *OutputFormatter) writeJSON(resp CLIResponse, opts []ResponseOption) error {
	for _, opt := range opts {
		opt(&resp)
	}
	return encodeJSON(f.Writer, resp)
}

// VerboseLog writes a progress line to the diagnostic writer in verbose
// mode, keeping JSON on Writer intact.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
