package models

import (
	"context"
	"errors"

	"github.com/roach88/skein"
	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/model"
)

// Result is the verdict of one check of a model.
type Result struct {
	Model   string
	Outcome Outcome
	Code    skein.ViolationCode

	Report  *model.Report
	Failure *model.Failure
}

// Matches reports whether r is the outcome m expects.
func (r Result) Matches(m Model) bool {
	if r.Outcome != m.Expect {
		return false
	}
	return m.Expect == Pass || r.Code == m.Code
}

// Canonical renders the verdict as canonical JSON. Run ids, timings and
// iteration counts are left out so the rendering is stable.
func (r Result) Canonical() ([]byte, error) {
	v := map[string]any{
		"model":   r.Model,
		"outcome": string(r.Outcome),
	}
	if r.Code != "" {
		v["code"] = string(r.Code)
	}
	return checkpoint.MarshalCanonical(v)
}

// Check runs m with b. A defect in the model is a Fail result, not an
// error; errors are configuration or checkpoint problems.
func Check(ctx context.Context, b *model.Builder, m Model) (Result, error) {
	res := Result{Model: m.Name, Outcome: Pass}
	report, err := b.CheckContext(ctx, driverOf(m))
	res.Report = report

	var failure *model.Failure
	switch {
	case errors.As(err, &failure):
		res.Outcome = Fail
		res.Failure = failure
		res.Code = skein.Code(failure)
	case err != nil:
		return res, err
	}
	return res, nil
}

func driverOf(m Model) model.Func {
	return skein.Driver(m.Run)
}
