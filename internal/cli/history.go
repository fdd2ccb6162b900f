package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mpilower/internal/store"
)

// HistoryOptions holds flags for the history commands.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// RunDetail is a run with its calls and diagnostics.
type RunDetail struct {
	Run         store.RunRecord          `json:"run"`
	Calls       []store.CallRecord       `json:"calls"`
	Diagnostics []store.DiagnosticRecord `json:"diagnostics"`
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the lowering ledger",
		Long: `Query the runs recorded by the lower command.

Examples:
  mpilower history runs
  mpilower history show <run-id>
  mpilower history find <call-id> --db ./ledger.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the ledger database (default: [store] path)")

	cmd.AddCommand(&cobra.Command{
		Use:           "runs",
		Short:         "List recorded runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryRuns(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show the calls and diagnostics of a run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "find <call-id>",
		Short:         "Find every run that emitted a call",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryFind(opts, args[0], cmd)
		},
	})

	return cmd
}

// openLedger opens an existing ledger. A missing database is a command
// error rather than an empty history.
func (o *HistoryOptions) openLedger() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.settings().Store.Path
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("ledger not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	return st, nil
}

func historyContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runHistoryRuns(opts *HistoryOptions, cmd *cobra.Command) error {
	st, err := opts.openLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(historyContext(cmd))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  calls=%d errors=%d\n", r.ID, r.Manifest, r.CallCount, r.ErrorCount)
	}
	return nil
}

func runHistoryShow(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	st, err := opts.openLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := historyContext(cmd)
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, err.Error())
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	calls, err := st.ReadCalls(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read calls", err)
	}
	diags, err := st.ReadDiagnostics(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read diagnostics", err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(RunDetail{Run: run, Calls: calls, Diagnostics: diags})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Manifest)
	fmt.Fprintf(w, "  digest: %s\n", run.Digest)
	fmt.Fprintf(w, "  ir %s, mpilower %s\n", run.IRVersion, run.ToolVersion)
	for _, c := range calls {
		fmt.Fprintf(w, "  [%d] op %d: %s\n", c.Seq, c.OpIndex, c.Rendered)
	}
	for _, d := range diags {
		fmt.Fprintf(w, "  ✗ op %d: %s: %s\n", d.OpIndex, d.Code, d.Message)
	}
	return nil
}

func runHistoryFind(opts *HistoryOptions, callID string, cmd *cobra.Command) error {
	st, err := opts.openLedger()
	if err != nil {
		return err
	}
	defer st.Close()

	found, err := st.FindCall(historyContext(cmd), callID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find call", err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(found)
	}

	w := formatter.Writer
	if len(found) == 0 {
		fmt.Fprintf(w, "No runs emitted call %s\n", callID)
		return nil
	}
	for _, c := range found {
		fmt.Fprintf(w, "%s  [%d] op %d: %s\n", c.RunID, c.Seq, c.OpIndex, c.Rendered)
	}
	return nil
}
