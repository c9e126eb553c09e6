package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skein/internal/store"
)

func seedRuns(t *testing.T, path string, runs ...store.Run) {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	for _, r := range runs {
		_, err := st.RecordRun(context.Background(), r)
		require.NoError(t, err)
	}
}

func TestHistory(t *testing.T) {
	db := tempDB(t)
	seedRuns(t, db,
		store.Run{ID: "r1", Model: "spin_lock", Iterations: 10, Complete: true, Outcome: store.OutcomePass, Elapsed: 1500 * time.Millisecond},
		store.Run{ID: "r2", Model: "lock_inversion", Iterations: 3, Outcome: store.OutcomeFail, Violation: "DEADLOCK", Fingerprint: "abc"},
		store.Run{ID: "r3", Model: "spin_lock", Iterations: 5, StopReason: "max_permutations", Outcome: store.OutcomePass},
	)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, testOptions(), "history", "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out, "RUN")
		assert.Contains(t, out, "fail DEADLOCK")
		assert.Contains(t, out, "stopped: max_permutations")
		assert.Less(t, strings.Index(out, "r1"), strings.Index(out, "r3"))
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, testOptions(), "--format", "json", "history", "--db", db)
		require.NoError(t, err)
		_, entries := decode[[]HistoryEntry](t, out)
		require.Len(t, entries, 3)
		assert.Equal(t, int64(1500), entries[0].ElapsedMS)
		assert.Equal(t, "DEADLOCK", entries[1].Violation)
	})

	t.Run("filtered", func(t *testing.T) {
		out, err := execute(t, testOptions(), "--format", "json", "history", "--db", db, "--model", "spin_lock", "--limit", "1")
		require.NoError(t, err)
		_, entries := decode[[]HistoryEntry](t, out)
		require.Len(t, entries, 1)
		assert.Equal(t, "r3", entries[0].RunID)
	})
}

func TestHistory_Empty(t *testing.T) {
	db := tempDB(t)
	seedRuns(t, db)

	out, err := execute(t, testOptions(), "history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestHistory_Errors(t *testing.T) {
	_, err := execute(t, testOptions(), "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = execute(t, testOptions(), "history", "--db", tempDB(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, testOptions(), "history", "--db", tempDB(t), "--limit", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit must not be negative")
}
