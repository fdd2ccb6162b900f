package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mpilower/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat warnings as errors
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a manifest without recording a run",
		Long: `Validate a CUE operation manifest.

Compiles the manifest, lowers every operation and reports the operations
that would fail, then lints the operations (indexed views sent whole,
mismatched send and receive types, negative ranks or tags, collectives
rooted at the null process, malformed status arrays) and declarations
that are never used. Nothing is written to the ledger.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runValidate(opts *ValidateOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	irctx := opts.settings().Context()

	m, err := LoadManifest(manifestPath, irctx)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Validating %d operation(s) from %s", len(m.Ops), manifestPath)

	result := ValidationResult{Valid: true}
	for _, finding := range compiler.Validate(m, irctx) {
		if finding.IsError() {
			result.Errors = append(result.Errors, finding)
		} else {
			result.Warnings = append(result.Warnings, finding)
		}
	}
	result.Valid = len(result.Errors) == 0 && (!opts.Strict || len(result.Warnings) == 0)

	if formatter.Format == "json" {
		return outputValidationJSON(formatter, result)
	}
	return outputValidationText(formatter, result)
}

// outputValidationJSON outputs the findings as a CLIResponse.
func outputValidationJSON(formatter *OutputFormatter, result ValidationResult) error {
	var err error
	if result.Valid {
		err = formatter.Success(result)
	} else {
		first := firstFinding(result)
		err = formatter.Error(first.Code, first.Message, nil, WithData(result))
	}
	if err != nil {
		return err
	}
	return validationExit(result)
}

// outputValidationText outputs the findings for humans.
func outputValidationText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintln(w, "✓ Manifest valid")
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}

	for _, group := range [][]compiler.ValidationError{result.Errors, result.Warnings} {
		for _, finding := range group {
			fmt.Fprintln(w)
			if finding.Line > 0 {
				fmt.Fprintf(w, "line %d\n", finding.Line)
			}
			fmt.Fprintf(w, "  %s %s: %s: %s\n", finding.Code, finding.Severity, finding.Field, finding.Message)
		}
	}

	return validationExit(result)
}

func firstFinding(result ValidationResult) compiler.ValidationError {
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return result.Warnings[0]
}

// validationExit maps an invalid result to exit code 1 (validation failure).
func validationExit(result ValidationResult) error {
	if result.Valid {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s) and %d warning(s)",
		len(result.Errors), len(result.Warnings)))
}
