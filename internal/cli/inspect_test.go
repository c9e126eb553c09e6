package cli

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Text(t *testing.T) {
	out, err := execute(t, testOptions(), "inspect", "testdata/sample.json")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "inspect_sample", []byte(out))
}

func TestInspect_JSON(t *testing.T) {
	out, err := execute(t, testOptions(), "--format", "json", "inspect", "testdata/sample.json")
	require.NoError(t, err)

	status, res := decode[InspectResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, -1, res.PreemptionBound)
	assert.Equal(t, 4, res.Decisions)
	require.Len(t, res.Branches, 4)
	assert.Equal(t, "load", res.Branches[1].Kind)
	assert.Equal(t, []int{2, 1, 0}, res.Branches[1].Values)
	assert.Equal(t, "639da939f13fc49018b18be0508818f88a48cae5681b40c46b5a552c6367fb30", res.Fingerprint)
}

func TestInspect_Dump(t *testing.T) {
	out, err := execute(t, testOptions(), "inspect", "testdata/sample.json", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "fingerprint: ")
	assert.Contains(t, out, "rt.PathSnapshot")
	assert.Contains(t, out, "MaxBranches: (int) 1000")
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, testOptions(), "inspect", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read checkpoint")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, testOptions(), "inspect")
	require.Error(t, err)
}
