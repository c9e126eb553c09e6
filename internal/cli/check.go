package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/skein/internal/models"
	"github.com/roach88/skein/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	BoundsOptions
	All bool
}

// CheckResult is the verdict for one model.
type CheckResult struct {
	Model       string `json:"model"`
	RunID       string `json:"run_id"`
	Expect      string `json:"expect"`
	ExpectCode  string `json:"expect_code,omitempty"`
	Outcome     string `json:"outcome"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Iterations  int    `json:"iterations"`
	Complete    bool   `json:"complete"`
	StopReason  string `json:"stop_reason,omitempty"`
	AsExpected  bool   `json:"as_expected"`
}

// CheckSummary holds the results of one check command.
type CheckSummary struct {
	Results    []CheckResult `json:"results"`
	Expected   int           `json:"expected"`
	Unexpected int           `json:"unexpected"`
	Total      int           `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [model...]",
		Short: "Explore catalog models",
		Long: `Explore every execution of the named catalog models and compare each
verdict with the outcome the model expects.

Bounds come from the defaults, then --config, then SKEIN_* environment
variables, then flags. With --db, each model's exploration path is kept in
the database so an interrupted search resumes, and every check is recorded
in the run history.

Exit codes:
  0 - Every model matched its expected outcome
  1 - One or more models passed or failed unexpectedly
  2 - Command error (unknown model, invalid bounds, database error, etc.)

Examples:
  skein check --all
  skein check lock_inversion --checkpoint ./lock.json
  skein check spin_lock --max-duration 30s --db ./skein.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.All, "all", false, "check every catalog model")

	return cmd
}

func runCheck(opts *CheckOptions, names []string, cmd *cobra.Command) error {
	selected, err := selectModels(names, opts.All)
	if err != nil {
		return err
	}

	cfg, err := opts.resolve(cmd, opts.lookupEnv())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cfg.CheckpointFile != "" && len(selected) > 1 {
		return NewExitError(ExitCommandError, "a checkpoint file holds one model; name exactly one")
	}

	logger := opts.logger(cmd)

	var st *store.Store
	if cfg.DB != "" {
		st, err = store.Open(cfg.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	// An interrupt ends the search between executions; the report and
	// checkpoint record where it stopped.
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	summary := CheckSummary{Results: make([]CheckResult, 0, len(selected))}
	for _, m := range selected {
		b := cfg.Builder()
		b.Logger = logger.With("model", m.Name)
		b.RunIDs = opts.runIDs()
		if st != nil && cfg.CheckpointFile == "" {
			b.Checkpointer = st.Checkpointer(m.Name)
		}

		res, err := models.Check(ctx, b, m)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to check %s", m.Name), err)
		}
		r := newCheckResult(m, res)
		if st != nil {
			if err := recordRun(ctx, st, r, res); err != nil {
				return WrapExitError(ExitCommandError, "failed to record run", err)
			}
		}

		summary.Results = append(summary.Results, r)
		summary.Total++
		if r.AsExpected {
			summary.Expected++
		} else {
			summary.Unexpected++
		}
		if ctx.Err() != nil {
			break
		}
	}

	status := "ok"
	if summary.Unexpected > 0 {
		status = "fail"
	}
	if err := opts.formatter(cmd).Render(status, summary, func(w io.Writer) {
		writeCheckText(w, summary)
	}); err != nil {
		return err
	}

	if summary.Unexpected > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d models did not match their expected outcome", summary.Unexpected, summary.Total))
	}
	return nil
}

// selectModels resolves model names against the catalog.
func selectModels(names []string, all bool) ([]models.Model, error) {
	if all {
		if len(names) > 0 {
			return nil, NewExitError(ExitCommandError, "--all cannot be combined with model names")
		}
		return models.All(), nil
	}
	if len(names) == 0 {
		return nil, NewExitError(ExitCommandError, "name at least one model, or pass --all (see 'skein models')")
	}
	selected := make([]models.Model, 0, len(names))
	for _, name := range names {
		m, ok := models.Lookup(name)
		if !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown model %q", name))
		}
		selected = append(selected, m)
	}
	return selected, nil
}

func newCheckResult(m models.Model, res models.Result) CheckResult {
	r := CheckResult{
		Model:      m.Name,
		Expect:     string(m.Expect),
		ExpectCode: string(m.Code),
		Outcome:    string(res.Outcome),
		Code:       string(res.Code),
		AsExpected: res.Matches(m),
	}
	if rep := res.Report; rep != nil {
		r.RunID = rep.RunID
		r.Iterations = rep.Iterations
		r.Complete = rep.Complete
		r.StopReason = string(rep.StopReason)
	}
	if f := res.Failure; f != nil {
		r.Fingerprint = f.Fingerprint
		r.Message = f.Cause.Error()
		if v, ok := f.Violation(); ok {
			r.Message = v.Message
		}
	}
	return r
}

func recordRun(ctx context.Context, st *store.Store, r CheckResult, res models.Result) error {
	ctx = context.WithoutCancel(ctx)
	run := store.Run{
		ID:          r.RunID,
		Model:       r.Model,
		Iterations:  r.Iterations,
		Complete:    r.Complete,
		StopReason:  r.StopReason,
		Outcome:     r.Outcome,
		Violation:   r.Code,
		Fingerprint: r.Fingerprint,
	}
	if res.Report != nil {
		run.Elapsed = res.Report.Elapsed
	}
	if _, err := st.RecordRun(ctx, run); err != nil {
		return err
	}
	// A finished search starts over next time.
	if r.Complete {
		return st.DeleteCheckpoint(ctx, r.Model)
	}
	return nil
}

func writeCheckText(w io.Writer, s CheckSummary) {
	for _, r := range s.Results {
		mark := "✓"
		if !r.AsExpected {
			mark = "✗"
		}
		verdict := r.Outcome
		if r.Code != "" {
			verdict += " " + r.Code
		}
		fmt.Fprintf(w, "%s %s: %s (%s)\n", mark, r.Model, verdict, progress(r))
		if !r.AsExpected {
			expected := r.Expect
			if r.ExpectCode != "" {
				expected += " " + r.ExpectCode
			}
			fmt.Fprintf(w, "  expected: %s\n", expected)
		}
		if r.Message != "" {
			fmt.Fprintf(w, "  violation: %s\n", r.Message)
		}
		if r.Fingerprint != "" {
			fmt.Fprintf(w, "  fingerprint: %s\n", r.Fingerprint)
		}
	}
	fmt.Fprintf(w, "\n%d models: %d as expected, %d unexpected\n", s.Total, s.Expected, s.Unexpected)
}

func progress(r CheckResult) string {
	noun := "iterations"
	if r.Iterations == 1 {
		noun = "iteration"
	}
	switch {
	case r.Complete:
		return fmt.Sprintf("%d %s, complete", r.Iterations, noun)
	case r.StopReason != "":
		return fmt.Sprintf("%d %s, stopped: %s", r.Iterations, noun, r.StopReason)
	default:
		return fmt.Sprintf("%d %s", r.Iterations, noun)
	}
}

