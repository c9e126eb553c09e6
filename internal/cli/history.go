package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/skein/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Model    string
	Limit    int
}

// HistoryEntry is one recorded check.
type HistoryEntry struct {
	RunID       string `json:"run_id"`
	Model       string `json:"model"`
	Outcome     string `json:"outcome"`
	Violation   string `json:"violation,omitempty"`
	Iterations  int    `json:"iterations"`
	Complete    bool   `json:"complete"`
	StopReason  string `json:"stop_reason,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded checks",
		Long: `List the checks recorded in a database, oldest first.

Exit codes:
  0 - History listed
  2 - Command error (database not found, etc.)

Examples:
  skein history --db ./skein.db
  skein history --db ./skein.db --model lock_inversion --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only list checks of this model")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "list only the most recent N checks (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit))
	}
	// Opening would create an empty database.
	if _, err := os.Stat(opts.Database); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), opts.Model, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, HistoryEntry{
			RunID:       r.ID,
			Model:       r.Model,
			Outcome:     r.Outcome,
			Violation:   r.Violation,
			Iterations:  r.Iterations,
			Complete:    r.Complete,
			StopReason:  r.StopReason,
			Fingerprint: r.Fingerprint,
			ElapsedMS:   r.Elapsed.Milliseconds(),
		})
	}

	return opts.formatter(cmd).Render("ok", entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tMODEL\tOUTCOME\tITERATIONS\tSTATUS")
		for _, e := range entries {
			outcome := e.Outcome
			if e.Violation != "" {
				outcome += " " + e.Violation
			}
			status := "complete"
			if !e.Complete {
				status = "stopped"
				if e.StopReason != "" {
					status += ": " + e.StopReason
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.RunID, e.Model, outcome, e.Iterations, status)
		}
		_ = tw.Flush()
	})
}
