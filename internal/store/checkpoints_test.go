package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/roach88/skein/internal/checkpoint"
	"github.com/roach88/skein/internal/rt"
)

func testSnapshot(pos int) rt.PathSnapshot {
	first := 0
	return rt.PathSnapshot{
		Version:         rt.SnapshotVersion,
		MaxBranches:     1000,
		PreemptionBound: rt.Unbounded,
		Branches: []rt.BranchSnapshot{
			{Kind: "schedule", Threads: "ap", InitialActive: &first, Remaining: 1},
			{Kind: "load", Values: []int{2, 1, 0}, Pos: pos, Remaining: 2 - pos},
		},
	}
}

func TestSaveCheckpoint_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	snap := testSnapshot(1)

	if err := s.SaveCheckpoint(ctx, "racing", snap, 12); err != nil {
		t.Fatalf("SaveCheckpoint() failed: %v", err)
	}

	cp, ok, err := s.LoadCheckpoint(ctx, "racing")
	if err != nil {
		t.Fatalf("LoadCheckpoint() failed: %v", err)
	}
	if !ok {
		t.Fatal("LoadCheckpoint() found nothing")
	}
	if cp.Model != "racing" || cp.Iteration != 12 {
		t.Errorf("got model %q iteration %d, want racing 12", cp.Model, cp.Iteration)
	}
	if !reflect.DeepEqual(cp.Path, snap) {
		t.Errorf("path mismatch:\n got %+v\nwant %+v", cp.Path, snap)
	}
	if want := checkpoint.MustFingerprint(snap); cp.Fingerprint != want {
		t.Errorf("fingerprint = %s, want %s", cp.Fingerprint, want)
	}
}

func TestLoadCheckpoint_Missing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.LoadCheckpoint(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("LoadCheckpoint() failed: %v", err)
	}
	if ok {
		t.Error("LoadCheckpoint() reported a checkpoint for an unknown model")
	}
}

func TestSaveCheckpoint_Replaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveCheckpoint(ctx, "m", testSnapshot(0), 1); err != nil {
		t.Fatalf("first SaveCheckpoint() failed: %v", err)
	}
	first, _, err := s.LoadCheckpoint(ctx, "m")
	if err != nil {
		t.Fatalf("LoadCheckpoint() failed: %v", err)
	}

	if err := s.SaveCheckpoint(ctx, "m", testSnapshot(2), 3); err != nil {
		t.Fatalf("second SaveCheckpoint() failed: %v", err)
	}
	second, _, err := s.LoadCheckpoint(ctx, "m")
	if err != nil {
		t.Fatalf("LoadCheckpoint() failed: %v", err)
	}

	if second.Iteration != 3 || second.Path.Branches[1].Pos != 2 {
		t.Errorf("checkpoint not replaced: %+v", second)
	}
	if second.Seq <= first.Seq {
		t.Errorf("seq did not advance: %d then %d", first.Seq, second.Seq)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM checkpoints").Scan(&count); err != nil {
		t.Fatalf("count checkpoints: %v", err)
	}
	if count != 1 {
		t.Errorf("checkpoints rows = %d, want 1", count)
	}
}

func TestLoadCheckpoint_RejectsCorruptPath(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO checkpoints (model, iteration, path, fingerprint, seq)
		VALUES ('m', 1, '{"version": 9}', '', 1)
	`)
	if err != nil {
		t.Fatalf("insert checkpoint: %v", err)
	}

	if _, _, err := s.LoadCheckpoint(context.Background(), "m"); err == nil {
		t.Error("expected error for corrupt checkpoint, got nil")
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveCheckpoint(ctx, "m", testSnapshot(0), 1); err != nil {
		t.Fatalf("SaveCheckpoint() failed: %v", err)
	}
	if err := s.DeleteCheckpoint(ctx, "m"); err != nil {
		t.Fatalf("DeleteCheckpoint() failed: %v", err)
	}
	if _, ok, _ := s.LoadCheckpoint(ctx, "m"); ok {
		t.Error("checkpoint still present after delete")
	}
	if err := s.DeleteCheckpoint(ctx, "m"); err != nil {
		t.Errorf("deleting a missing checkpoint should not error: %v", err)
	}
}

func TestModelCheckpointer_ScopesByModel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := s.Checkpointer("a")
	b := s.Checkpointer("b")

	if err := a.Save(ctx, testSnapshot(1), 5); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	snap, ok, err := a.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	if snap.Branches[1].Pos != 1 {
		t.Errorf("loaded pos %d, want 1", snap.Branches[1].Pos)
	}

	if _, ok, err := b.Load(ctx); err != nil || ok {
		t.Errorf("other model Load() = %v, %v; want false, nil", ok, err)
	}
}
