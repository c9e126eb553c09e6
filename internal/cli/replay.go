package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/skein"
	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/model"
	"github.com/roach88/skein/internal/models"
	"github.com/roach88/skein/internal/rt"
	"github.com/roach88/skein/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	BoundsOptions
}

// ReplayResult is the outcome of replaying one saved path.
type ReplayResult struct {
	Model       string `json:"model"`
	Source      string `json:"source"`
	RunID       string `json:"run_id"`
	Decisions   int    `json:"decisions"`
	Outcome     string `json:"outcome"`
	Code        string `json:"code,omitempty"`
	Message     string `json:"message,omitempty"`
	Fingerprint string `json:"fingerprint"`
	AsExpected  bool   `json:"as_expected"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <model>",
		Short: "Replay a saved exploration path",
		Long: `Run a catalog model once along a saved exploration path.

The path comes from --checkpoint, or from the model's checkpoint in --db.
When a check finds a defect the failing path is what gets saved, so replay
reproduces the failure deterministically. The fingerprint printed here
matches the one check reported.

Exit codes:
  0 - The replayed run matched the model's expected outcome
  1 - The replayed run did not match the expected outcome
  2 - Command error (unknown model, no saved path, database error, etc.)

Examples:
  skein replay lock_inversion --checkpoint ./lock.json
  skein replay lost_update --db ./skein.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	opts.register(cmd)

	return cmd
}

func runReplay(opts *ReplayOptions, name string, cmd *cobra.Command) error {
	m, ok := models.Lookup(name)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown model %q", name))
	}

	cfg, err := opts.resolve(cmd, opts.lookupEnv())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	ctx := commandContext(cmd)
	var (
		snap   rt.PathSnapshot
		source string
	)
	switch {
	case cfg.CheckpointFile != "":
		snap, err = checkpoint.Read(cfg.CheckpointFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read checkpoint", err)
		}
		source = cfg.CheckpointFile
	case cfg.DB != "":
		st, err := store.Open(cfg.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		cp, found, err := st.LoadCheckpoint(ctx, m.Name)
		closeErr := st.Close()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load checkpoint", err)
		}
		if closeErr != nil {
			return WrapExitError(ExitCommandError, "failed to close database", closeErr)
		}
		if !found {
			return NewExitError(ExitCommandError, fmt.Sprintf("no checkpoint saved for %s in %s", m.Name, cfg.DB))
		}
		snap, source = cp.Path, cfg.DB
	default:
		return NewExitError(ExitCommandError, "replay needs --checkpoint or --db")
	}

	b := cfg.Builder()
	b.Logger = opts.logger(cmd).With("model", m.Name)
	b.RunIDs = opts.runIDs()

	res := ReplayResult{
		Model:     m.Name,
		Source:    source,
		Decisions: len(snap.Branches),
		Outcome:   string(models.Pass),
	}
	rep, err := b.Replay(ctx, snap, skein.Driver(m.Run))
	if rep != nil {
		res.RunID = rep.RunID
	}

	var failure *model.Failure
	switch {
	case errors.As(err, &failure):
		res.Outcome = string(models.Fail)
		res.Code = string(skein.Code(failure))
		res.Fingerprint = failure.Fingerprint
		res.Message = failure.Cause.Error()
		if v, ok := failure.Violation(); ok {
			res.Message = v.Message
		}
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to replay", err)
	default:
		if res.Fingerprint, err = checkpoint.Fingerprint(snap); err != nil {
			return WrapExitError(ExitCommandError, "failed to fingerprint path", err)
		}
	}
	res.AsExpected = models.Result{
		Outcome: models.Outcome(res.Outcome),
		Code:    skein.ViolationCode(res.Code),
	}.Matches(m)

	status := "ok"
	if !res.AsExpected {
		status = "fail"
	}
	if err := opts.formatter(cmd).Render(status, res, func(w io.Writer) {
		writeReplayText(w, res, m)
	}); err != nil {
		return err
	}

	if !res.AsExpected {
		return NewExitError(ExitFailure, fmt.Sprintf("replay of %s did not match its expected outcome", m.Name))
	}
	return nil
}

func writeReplayText(w io.Writer, r ReplayResult, m models.Model) {
	mark := "✓"
	if !r.AsExpected {
		mark = "✗"
	}
	verdict := r.Outcome
	if r.Code != "" {
		verdict += " " + r.Code
	}
	fmt.Fprintf(w, "%s %s: %s (replayed %d decisions from %s)\n", mark, r.Model, verdict, r.Decisions, r.Source)
	if !r.AsExpected {
		expected := string(m.Expect)
		if m.Code != "" {
			expected += " " + string(m.Code)
		}
		fmt.Fprintf(w, "  expected: %s\n", expected)
	}
	if r.Message != "" {
		fmt.Fprintf(w, "  violation: %s\n", r.Message)
	}
	fmt.Fprintf(w, "  fingerprint: %s\n", r.Fingerprint)
}
