package scenario_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/isolation"
	"github.com/arthur-debert/scenariotest/pkg/scenario"
	"github.com/arthur-debert/scenariotest/pkg/testutil"
)

// uppercaseHook rewrites every regular file in the working directory to
// upper case.
func uppercaseHook(name, workDir string) error {
	return filepath.WalkDir(workDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(strings.ToUpper(string(data))), 0644)
	})
}

func TestRunAllUppercase(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"uppercase/initial_state/input.txt":      "hello world\n",
		"uppercase/initial_state/docs/notes.txt": "keep these\n",
		"uppercase/final_state/input.txt":        "HELLO WORLD\n",
		"uppercase/final_state/docs/notes.txt":   "KEEP THESE\n",
	})

	runner := scenario.NewRunner(root, uppercaseHook)
	runner.RunAll(t)
}

func TestRunAllArchiveStates(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "packed")
	require.NoError(t, os.MkdirAll(dir, 0755))
	testutil.WriteTarGz(t, filepath.Join(dir, "initial_state.tar.gz"),
		map[string]string{"input.txt": "quiet\n"})
	testutil.WriteTarGz(t, filepath.Join(dir, "final_state.tar.gz"),
		map[string]string{"input.txt": "QUIET\n"})

	runner := scenario.NewRunner(root, uppercaseHook)
	runner.RunAll(t)
}

func TestRunAllWholeScenarioArchive(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTarGz(t, filepath.Join(root, "packed.tar.gz"), map[string]string{
		"initial_state/input.txt": "quiet\n",
		"final_state/input.txt":   "QUIET\n",
	})

	runner := scenario.NewRunner(root, uppercaseHook)
	runner.RunAll(t)
}

func TestExecutePackedScenarioReadsManifest(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTarGz(t, filepath.Join(root, "shelved.tar.gz"), map[string]string{
		"initial_state/f.txt": "x\n",
		"final_state/f.txt":   "would fail\n",
		"scenario.yaml":       "skip: true\nskip_reason: packed and parked\n",
	})

	runner := scenario.NewRunner(root, uppercaseHook)
	scenarios, err := scenario.Discover(root)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	out := runner.Execute(scenarios[0])
	assert.Equal(t, scenario.Skipped, out.Status)
	assert.Equal(t, "packed and parked", out.Detail)
}

func TestExecutePackedScenarioMissingState(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTarGz(t, filepath.Join(root, "lopsided.tar.gz"), map[string]string{
		"initial_state/f.txt": "x\n",
	})

	runner := scenario.NewRunner(root, uppercaseHook)
	scenarios, err := scenario.Discover(root)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	out := runner.Execute(scenarios[0])
	assert.Equal(t, scenario.Failed, out.Status)
	require.Error(t, out.Err)
	assert.True(t, errors.IsErrorCode(out.Err, errors.ErrScenarioInvalid))
}

func TestRunAllHookMayLeaveScratchFiles(t *testing.T) {
	// With exact matching off, entries beyond the final state are
	// tolerated.
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"scratch/initial_state/input.txt": "hi\n",
		"scratch/final_state/input.txt":   "HI\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error {
		if err := uppercaseHook(name, workDir); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(workDir, "scratch.tmp"), []byte("junk"), 0644)
	})
	runner.MatchFinalStateExactly = false
	runner.RunAll(t)
}

func TestExecuteExactMatchRejectsScratchFiles(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"strict/initial_state/input.txt": "hi\n",
		"strict/final_state/input.txt":   "hi\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error {
		return os.WriteFile(filepath.Join(workDir, "scratch.tmp"), []byte("junk"), 0644)
	})
	scenarios, err := scenario.Discover(root)
	require.NoError(t, err)

	out := runner.Execute(scenarios[0])
	assert.Equal(t, scenario.Failed, out.Status)
	assert.Contains(t, out.Detail, "scratch.tmp")
}

func TestRunAllFileNamesStrategy(t *testing.T) {
	// Names match, contents deliberately do not.
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"names_only/initial_state/report.txt": "draft\n",
		"names_only/final_state/report.txt":   "completely different\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error { return nil })
	runner.CheckStrategy = scenario.FileNames
	runner.RunAll(t)
}

func TestRunAllNoCheckStrategy(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"unchecked/initial_state/f.txt": "anything\n",
		"unchecked/final_state/g.txt":   "never compared\n",
		"unchecked/scenario.yaml":       "check_strategy: none\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error { return nil })
	runner.RunAll(t)
}

func TestRunAllSkipsByManifest(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"skipped/initial_state/f.txt": "x\n",
		"skipped/final_state/f.txt":   "would fail\n",
		"skipped/scenario.yaml":       "skip: true\nskip_reason: waiting on upstream fix\n",
	})

	var hookRan bool
	runner := scenario.NewRunner(root, func(name, workDir string) error {
		hookRan = true
		return nil
	})
	runner.RunAll(t)
	assert.False(t, hookRan, "skipped scenario must not execute its hook")
}

func TestRunAllHookRunsInsideWorkDir(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"cwd/initial_state/f.txt": "x\n",
		"cwd/final_state/f.txt":   "x\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		resolvedCwd, err := filepath.EvalSymlinks(cwd)
		if err != nil {
			return err
		}
		resolvedWork, err := filepath.EvalSymlinks(workDir)
		if err != nil {
			return err
		}
		if resolvedCwd != resolvedWork {
			return errors.Newf(errors.ErrInternal, "hook ran in %s, want %s", cwd, workDir)
		}
		return nil
	})
	runner.RunAll(t)
}

func TestRunAllWithConnections(t *testing.T) {
	shared := t.TempDir()
	testutil.WriteTree(t, shared, map[string]string{"fixture.txt": "shared data\n"})

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"linked/initial_state/f.txt": "x\n",
		"linked/final_state/f.txt":   "x\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error {
		_, err := os.ReadFile(filepath.Join(workDir, "shared", "fixture.txt"))
		return err
	})
	runner.Connections = []isolation.Connection{
		{ExternalPath: shared, InternalPath: "shared"},
	}
	// The connection adds an entry the final state does not mention.
	runner.MatchFinalStateExactly = false
	runner.RunAll(t)
}

func TestCommandHookSuccess(t *testing.T) {
	workDir := t.TempDir()
	hook := scenario.CommandHook("sh", "-c", "printf made > made.txt")

	require.NoError(t, hook("demo", workDir))

	content, err := os.ReadFile(filepath.Join(workDir, "made.txt"))
	require.NoError(t, err)
	assert.Equal(t, "made", string(content))
}

func TestCommandHookSurfacesExitStatus(t *testing.T) {
	hook := scenario.CommandHook("sh", "-c", "echo broken >&2; exit 3")

	err := hook("demo", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrHookFailed))
	assert.Contains(t, err.Error(), "status 3")
	assert.Contains(t, err.Error(), "broken")
}

func TestCommandHookMissingBinary(t *testing.T) {
	hook := scenario.CommandHook("definitely-not-a-real-binary-xyz")

	err := hook("demo", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrHookFailed))
}

func TestRunAllCommandHook(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"shell/initial_state/input.txt": "hello shell\n",
		"shell/final_state/input.txt":   "hello shell\n",
		"shell/final_state/copy.txt":    "hello shell\n",
	})

	runner := scenario.NewRunner(root, scenario.CommandHook("sh", "-c", "cp input.txt copy.txt"))
	runner.RunAll(t)
}

func TestExecuteReportsMismatch(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"broken/initial_state/input.txt": "hello\n",
		"broken/final_state/input.txt":   "HELLO\n",
	})

	runner := scenario.NewRunner(root, func(name, workDir string) error { return nil })
	scenarios, err := scenario.Discover(root)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	out := runner.Execute(scenarios[0])
	assert.Equal(t, scenario.Failed, out.Status)
	assert.NoError(t, out.Err)
	assert.Contains(t, out.Detail, "final state does not match")
}

func TestExecuteReportsHookFailure(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"failing/initial_state/f.txt": "x\n",
		"failing/final_state/f.txt":   "x\n",
	})

	runner := scenario.NewRunner(root, scenario.CommandHook("sh", "-c", "exit 7"))
	scenarios, err := scenario.Discover(root)
	require.NoError(t, err)

	out := runner.Execute(scenarios[0])
	assert.Equal(t, scenario.Failed, out.Status)
	assert.Contains(t, out.Detail, "hook failed")
	assert.Contains(t, out.Detail, "status 7")
}

func TestExecuteAll(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"first/initial_state/a.txt":  "one\n",
		"first/final_state/a.txt":    "ONE\n",
		"second/initial_state/b.txt": "two\n",
		"second/final_state/b.txt":   "TWO\n",
		"third/initial_state/c.txt":  "three\n",
		"third/final_state/c.txt":    "three\n", // hook uppercases, so this fails
	})

	runner := scenario.NewRunner(root, uppercaseHook)
	outcomes, err := runner.ExecuteAll()
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	byName := map[string]scenario.Outcome{}
	for _, out := range outcomes {
		byName[out.Name] = out
	}
	assert.Equal(t, scenario.Passed, byName["first"].Status)
	assert.Equal(t, scenario.Passed, byName["second"].Status)
	assert.Equal(t, scenario.Failed, byName["third"].Status)
}

func TestExecuteAllEmptyDir(t *testing.T) {
	runner := scenario.NewRunner(t.TempDir(), uppercaseHook)
	_, err := runner.ExecuteAll()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}
