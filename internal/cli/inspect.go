package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/rt"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Dump bool
}

// InspectResult describes a checkpoint file.
type InspectResult struct {
	File            string              `json:"file"`
	Version         int                 `json:"version"`
	MaxBranches     int                 `json:"max_branches"`
	PreemptionBound int                 `json:"preemption_bound"`
	Fingerprint     string              `json:"fingerprint"`
	Decisions       int                 `json:"decisions"`
	Branches        []rt.BranchSnapshot `json:"branches"`

	snap rt.PathSnapshot
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <checkpoint>",
		Short: "Show the decisions in a checkpoint file",
		Long: `Decode a checkpoint file and list the decision it takes at each branch
point, along with the fingerprint of that run.

Exit codes:
  0 - Checkpoint decoded
  2 - Command error (missing or invalid checkpoint)

Examples:
  skein inspect ./lock.json
  skein inspect ./lock.json --dump`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "append a Go-syntax dump of the decoded path (text format)")

	return cmd
}

func runInspect(opts *InspectOptions, file string, cmd *cobra.Command) error {
	snap, err := checkpoint.Read(file)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read checkpoint", err)
	}
	fp, err := checkpoint.Fingerprint(snap)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to fingerprint checkpoint", err)
	}

	res := InspectResult{
		File:            file,
		Version:         snap.Version,
		MaxBranches:     snap.MaxBranches,
		PreemptionBound: snap.PreemptionBound,
		Fingerprint:     fp,
		Decisions:       len(snap.Branches),
		Branches:        snap.Branches,
		snap:            snap,
	}
	return opts.formatter(cmd).Render("ok", res, func(w io.Writer) {
		writeInspectText(w, res)
		if opts.Dump {
			fmt.Fprintln(w)
			dumpConfig.Fdump(w, res.snap)
		}
	})
}

func writeInspectText(w io.Writer, r InspectResult) {
	bound := "unbounded"
	if r.PreemptionBound != rt.Unbounded {
		bound = strconv.Itoa(r.PreemptionBound)
	}
	fmt.Fprintf(w, "checkpoint: %s\n", r.File)
	fmt.Fprintf(w, "version: %d\n", r.Version)
	fmt.Fprintf(w, "max_branches: %d\n", r.MaxBranches)
	fmt.Fprintf(w, "preemption_bound: %s\n", bound)
	fmt.Fprintf(w, "fingerprint: %s\n", r.Fingerprint)
	fmt.Fprintf(w, "decisions: %d\n", r.Decisions)
	if len(r.Branches) > 0 {
		fmt.Fprintln(w)
	}
	for i, b := range r.Branches {
		fmt.Fprintf(w, "%4d  %-8s  %s\n", i, b.Kind, describeBranch(b))
	}
}

// describeBranch renders the choice a decision takes.
func describeBranch(b rt.BranchSnapshot) string {
	switch b.Kind {
	case "schedule":
		return fmt.Sprintf("thread=%d threads=%s preemptions=%d remaining=%d",
			strings.IndexByte(b.Threads, 'a'), b.Threads, b.Preemptions, b.Remaining)
	case "load":
		store := -1
		if b.Pos >= 0 && b.Pos < len(b.Values) {
			store = b.Values[b.Pos]
		}
		return fmt.Sprintf("store=%d values=%v remaining=%d", store, b.Values, b.Remaining)
	case "spurious":
		return fmt.Sprintf("taken=%t", b.Taken)
	default:
		return ""
	}
}
