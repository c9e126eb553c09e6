package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skein/internal/model"
	"github.com/roach88/skein/internal/rt"
	"github.com/roach88/skein/internal/testutil"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.DefaultMaxThreads, cfg.MaxThreads)
	assert.Equal(t, rt.Unbounded, cfg.PreemptionBound)
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Config{
		MaxThreads:         3,
		MaxBranches:        500,
		MaxPermutations:    10000,
		MaxDuration:        Duration(90 * time.Second),
		PreemptionBound:    2,
		CheckpointFile:     "/tmp/skein.json",
		CheckpointInterval: 100,
		DB:                 "skein.db",
		Log:                true,
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_IntegerSecondsKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "seconds.yaml"))
	require.NoError(t, err)

	want := Default()
	want.MaxDuration = Duration(45 * time.Second)
	assert.Equal(t, want, cfg)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_thread")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(testutil.Env{
		EnvMaxThreads:         "2",
		EnvMaxBranches:        "64",
		EnvMaxPermutations:    "7",
		EnvMaxDuration:        "1m30s",
		EnvMaxPreemptions:     "3",
		EnvCheckpointFile:     "cp.json",
		EnvCheckpointInterval: "5",
		EnvLog:                "true",
	}.Lookup)
	require.NoError(t, err)

	assert.Equal(t, Config{
		MaxThreads:         2,
		MaxBranches:        64,
		MaxPermutations:    7,
		MaxDuration:        Duration(90 * time.Second),
		PreemptionBound:    3,
		CheckpointFile:     "cp.json",
		CheckpointInterval: 5,
		Log:                true,
	}, cfg)
}

func TestApplyEnv_DurationSeconds(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(testutil.Env{EnvMaxDuration: "30"}.Lookup))
	assert.Equal(t, Duration(30*time.Second), cfg.MaxDuration)
}

func TestApplyEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		vars testutil.Env
		want string
	}{
		{"bad int", testutil.Env{EnvMaxThreads: "four"}, EnvMaxThreads},
		{"bad duration", testutil.Env{EnvMaxDuration: "soon"}, EnvMaxDuration},
		{"negative duration", testutil.Env{EnvMaxDuration: "-5s"}, "negative"},
		{"bad bool", testutil.Env{EnvLog: "maybe"}, EnvLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(tt.vars.Lookup)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero threads", func(c *Config) { c.MaxThreads = 0 }},
		{"too many threads", func(c *Config) { c.MaxThreads = 65 }},
		{"zero branches", func(c *Config) { c.MaxBranches = 0 }},
		{"negative permutations", func(c *Config) { c.MaxPermutations = -1 }},
		{"preemption bound below unbounded", func(c *Config) { c.PreemptionBound = -2 }},
		{"zero checkpoint interval", func(c *Config) { c.CheckpointInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	cfg, err := Resolve(filepath.Join("testdata", "full.yaml"), testutil.Env{
		EnvMaxThreads: "2",
	}.Lookup)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxThreads)
	assert.Equal(t, 500, cfg.MaxBranches)
}

func TestResolve_InvalidAfterEnv(t *testing.T) {
	_, err := Resolve("", testutil.Env{EnvMaxBranches: "0"}.Lookup)
	assert.Error(t, err)
}

func TestBuilder(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "full.yaml"))
	require.NoError(t, err)

	b := cfg.Builder()
	require.NoError(t, b.Validate())
	assert.Equal(t, 3, b.MaxThreads)
	assert.Equal(t, 500, b.MaxBranches)
	assert.Equal(t, 10000, b.MaxPermutations)
	assert.Equal(t, 90*time.Second, b.MaxDuration)
	assert.Equal(t, 2, b.PreemptionBound)
	assert.Equal(t, "/tmp/skein.json", b.CheckpointFile)
	assert.Equal(t, 100, b.CheckpointInterval)
	assert.True(t, b.Log)
}
