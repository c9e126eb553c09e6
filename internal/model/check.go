package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/rt"
)

// Check explores every interleaving of f within the configured bounds.
//
// A defect is returned as a *Failure. Reaching a bound is not an error: the
// Report says the search is incomplete and why. Checker bugs panic.
func (b *Builder) Check(f Func) (*Report, error) {
	return b.CheckContext(context.Background(), f)
}

// CheckContext is Check with cancellation. The context is consulted between
// runs; a run in progress always finishes.
func (b *Builder) CheckContext(ctx context.Context, f Func) (*Report, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger()
	id := b.runID()
	cp := b.checkpointer()

	path := rt.NewPath(b.MaxBranches, b.PreemptionBound)
	if cp != nil {
		snap, ok, err := cp.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			if path, err = rt.RestorePath(snap); err != nil {
				return nil, fmt.Errorf("restore checkpoint: %w", err)
			}
			logger.Info("resuming from checkpoint", "run_id", id, "decisions", path.Len())
		}
	}

	logger.Info("model check started",
		"run_id", id,
		"max_threads", b.MaxThreads,
		"max_branches", b.MaxBranches,
		"preemption_bound", b.PreemptionBound,
	)

	e := &explorer{
		b:      b,
		ctx:    ctx,
		logger: logger,
		cp:     cp,
		path:   path,
		arena:  rt.NewArena(),
		sched:  rt.NewScheduler(),
		report: &Report{RunID: id},
		start:  time.Now(),
	}
	return e.run(f)
}

type explorer struct {
	b      *Builder
	ctx    context.Context
	logger *slog.Logger
	cp     Checkpointer
	path   *rt.Path
	arena  *rt.Arena
	sched  *rt.Scheduler
	report *Report
	start  time.Time
}

func (e *explorer) run(f Func) (*Report, error) {
	exec := e.b.newExecution(e.path, e.arena, e.logger)
	rep := e.report
	defer func() {
		rep.Elapsed = time.Since(e.start)
		rep.PeakArena = e.arena.Peak()
	}()

	for {
		if reason := e.stopReason(); reason != StopNone {
			rep.StopReason = reason
			if err := e.save(rep.Iterations + 1); err != nil {
				return rep, err
			}
			e.logger.Info("model check stopped",
				"run_id", rep.RunID,
				"reason", string(reason),
				"iterations", rep.Iterations,
			)
			return rep, nil
		}

		rep.Iterations++
		i := rep.Iterations
		if i%e.b.CheckpointInterval == 0 {
			e.logger.Info("exploring", "run_id", rep.RunID, "iteration", i, "elapsed", time.Since(e.start))
			if err := e.save(i); err != nil {
				return rep, err
			}
		}

		exec.Reset()
		if err := runOnce(e.sched, exec, f); err != nil {
			return rep, e.fail(i, err)
		}

		if !e.path.Step() {
			rep.Complete = true
			e.logger.Info("model check completed",
				"run_id", rep.RunID,
				"iterations", i,
				"elapsed", time.Since(e.start),
			)
			return rep, nil
		}
	}
}

func (e *explorer) stopReason() StopReason {
	if e.ctx.Err() != nil {
		return StopCanceled
	}
	n := e.report.Iterations
	if e.b.MaxPermutations > 0 && n >= e.b.MaxPermutations {
		return StopMaxPermutations
	}
	if e.b.MaxDuration > 0 && n > 0 && time.Since(e.start) >= e.b.MaxDuration {
		return StopMaxDuration
	}
	return StopNone
}

func (e *explorer) save(iteration int) error {
	if e.cp == nil {
		return nil
	}
	// A canceled search still records where it stopped.
	ctx := context.WithoutCancel(e.ctx)
	if err := e.cp.Save(ctx, e.path.Snapshot(), iteration); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// fail builds the Failure for a run. The checkpoint is overwritten with
// the failing run so it can be replayed.
func (e *explorer) fail(iteration int, cause error) error {
	snap := e.path.Snapshot()
	fp, err := checkpoint.Fingerprint(snap)
	if err != nil {
		return fmt.Errorf("fingerprint failing path: %w", err)
	}
	failure := &Failure{
		RunID:       e.report.RunID,
		Iteration:   iteration,
		Path:        snap,
		Fingerprint: fp,
		Cause:       cause,
	}
	e.logger.Warn("model check found a violation",
		"run_id", e.report.RunID,
		"iteration", iteration,
		"fingerprint", fp,
		"error", cause,
	)
	if err := e.save(iteration); err != nil {
		return err
	}
	return failure
}

// runOnce runs one interleaving and checks it for leaks. Checker bugs
// propagate as panics.
func runOnce(s *rt.Scheduler, exec *rt.Execution, f Func) (err error) {
	if err := s.Run(exec, func() { f(s) }); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(*rt.Violation)
			if !ok {
				panic(r)
			}
			err = v
		}
	}()
	exec.CheckForLeaks()
	return nil
}

// Replay runs f once along snap, typically the Path of a Failure. A run
// that needs decisions beyond the end of snap explores them as usual.
func (b *Builder) Replay(ctx context.Context, snap rt.PathSnapshot, f Func) (*Report, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	path, err := rt.RestorePath(snap)
	if err != nil {
		return nil, fmt.Errorf("restore path: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := b.logger()
	rep := &Report{RunID: b.runID(), Iterations: 1}
	start := time.Now()
	arena := rt.NewArena()
	exec := b.newExecution(path, arena, logger)

	logger.Info("replaying path", "run_id", rep.RunID, "decisions", path.Len())
	err = runOnce(rt.NewScheduler(), exec, f)
	rep.Elapsed = time.Since(start)
	rep.PeakArena = arena.Peak()
	if err != nil {
		fp, ferr := checkpoint.Fingerprint(path.Snapshot())
		if ferr != nil {
			return rep, fmt.Errorf("fingerprint failing path: %w", ferr)
		}
		return rep, &Failure{
			RunID:       rep.RunID,
			Iteration:   1,
			Path:        path.Snapshot(),
			Fingerprint: fp,
			Cause:       err,
		}
	}
	return rep, nil
}
