package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/scenariotest/pkg/config"
	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/isolation"
	"github.com/arthur-debert/scenariotest/pkg/scenario"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "scenarios", cfg.ScenariosDir)
	assert.Equal(t, "file_contents", cfg.CheckStrategy)
	assert.True(t, cfg.MatchFinalStateExactly)
	assert.Equal(t, "sha256", cfg.Digest)
	assert.Empty(t, cfg.Connections)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `scenarios_dir = "cases"
check_strategy = "file_names"
match_final_state_exactly = false
digest = "blake3"

[[connections]]
external = "/srv/fixtures"
internal = "fixtures"
strategy = "copy"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenariotest.toml"), []byte(content), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "cases", cfg.ScenariosDir)
	assert.Equal(t, "file_names", cfg.CheckStrategy)
	assert.False(t, cfg.MatchFinalStateExactly)
	assert.Equal(t, "blake3", cfg.Digest)
	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, "/srv/fixtures", cfg.Connections[0].External)
}

func TestLoadPrefersHiddenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".scenariotest.toml"),
		[]byte(`scenarios_dir = "hidden"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenariotest.toml"),
		[]byte(`scenarios_dir = "visible"`), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "hidden", cfg.ScenariosDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCENARIOTEST_SCENARIOS_DIR", "from-env")
	t.Setenv("SCENARIOTEST_DIGEST", "blake3")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ScenariosDir)
	assert.Equal(t, "blake3", cfg.Digest)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad_strategy", `check_strategy = "everything"`},
		{"bad_digest", `digest = "md5"`},
		{"bad_connection_strategy", "[[connections]]\nexternal = \"/x\"\nstrategy = \"hardlink\"\n"},
		{"connection_without_external", "[[connections]]\ninternal = \"x\"\n"},
		{"broken_toml", `scenarios_dir = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "scenariotest.toml"),
				[]byte(tt.content), 0644))

			_, err := config.Load(dir)
			require.Error(t, err)
			code := errors.GetErrorCode(err)
			assert.Contains(t, []errors.ErrorCode{errors.ErrConfigParse, errors.ErrConfigLoad}, code)
		})
	}
}

func TestIsolationConnections(t *testing.T) {
	cfg := &config.Config{
		Connections: []config.Connection{
			{External: "/srv/a", Internal: "a"},
			{External: "/srv/b", Internal: "b", Strategy: "copy"},
		},
	}

	connections, err := cfg.IsolationConnections()
	require.NoError(t, err)
	require.Len(t, connections, 2)
	assert.Equal(t, isolation.Symlink, connections[0].Strategy)
	assert.Equal(t, isolation.Copy, connections[1].Strategy)
}

func TestRunnerFromConfig(t *testing.T) {
	cfg := &config.Config{
		ScenariosDir:           "cases",
		CheckStrategy:          "file_names",
		MatchFinalStateExactly: true,
		Digest:                 "blake3",
	}

	hook := func(name, workDir string) error { return nil }
	runner, err := cfg.Runner(hook)
	require.NoError(t, err)

	assert.Equal(t, "cases", runner.ScenariosDir)
	assert.Equal(t, scenario.FileNames, runner.CheckStrategy)
	assert.True(t, runner.MatchFinalStateExactly)
	require.NotNil(t, runner.Comparator)
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenariotest.toml")
	require.NoError(t, config.WriteSample(path))

	cfg, err := config.Load(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "scenarios", cfg.ScenariosDir)

	err = config.WriteSample(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
