package store

import (
	"context"
	"testing"
	"time"
)

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := Run{
		ID:          "run-1",
		Model:       "lock_inversion",
		Iterations:  3,
		Complete:    false,
		Outcome:     OutcomeFail,
		Violation:   "DEADLOCK",
		Fingerprint: "abc",
		Elapsed:     1500 * time.Millisecond,
	}
	seq, err := s.RecordRun(ctx, want)
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if seq == 0 {
		t.Fatal("RecordRun() returned seq 0")
	}

	runs, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	want.Seq = seq
	if runs[0] != want {
		t.Errorf("run mismatch:\n got %+v\nwant %+v", runs[0], want)
	}
}

func TestRecordRun_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := Run{ID: "run-1", Model: "m", Iterations: 1, Complete: true, Outcome: OutcomePass}

	if _, err := s.RecordRun(ctx, r); err != nil {
		t.Fatalf("first RecordRun() failed: %v", err)
	}
	seq, err := s.RecordRun(ctx, r)
	if err != nil {
		t.Fatalf("second RecordRun() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("duplicate RecordRun() seq = %d, want 0", seq)
	}

	runs, err := s.ListRuns(ctx, "m", 0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs, want 1", len(runs))
	}
}

func TestRecordRun_InvalidOutcome(t *testing.T) {
	s := openTestStore(t)

	_, err := s.RecordRun(context.Background(), Run{ID: "r", Model: "m", Outcome: "unknown"})
	if err == nil {
		t.Error("expected error for invalid outcome, got nil")
	}
}

func TestListRuns_FiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, r := range []Run{
		{ID: "r1", Model: "a", Outcome: OutcomePass},
		{ID: "r2", Model: "b", Outcome: OutcomeFail},
		{ID: "r3", Model: "a", Outcome: OutcomeFail},
		{ID: "r4", Model: "a", Outcome: OutcomePass},
	} {
		if _, err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", r.ID, err)
		}
	}

	tests := []struct {
		name  string
		model string
		limit int
		want  []string
	}{
		{"all", "", 0, []string{"r1", "r2", "r3", "r4"}},
		{"one model", "a", 0, []string{"r1", "r3", "r4"}},
		{"limit keeps newest", "a", 2, []string{"r3", "r4"}},
		{"unknown model", "c", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.ListRuns(ctx, tt.model, tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() failed: %v", err)
			}
			got := []string{}
			for i, r := range runs {
				got = append(got, r.ID)
				if i > 0 && r.Seq <= runs[i-1].Seq {
					t.Errorf("runs not in seq order at %d", i)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
