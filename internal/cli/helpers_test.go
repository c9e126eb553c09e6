package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/skein/internal/testutil"
)

// testOptions isolates commands from SKEIN_* variables and names runs
// run-1, run-2, ...
func testOptions() *RootOptions {
	return &RootOptions{
		LookupEnv: testutil.Env{}.Lookup,
		RunIDs:    testutil.NewSequentialRunIDs("run"),
	}
}

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(opts)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), err
}

// decode parses a JSON response and its payload.
func decode[T any](t *testing.T, out string) (string, T) {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp.Status, resp.Data
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "skein.db")
}
