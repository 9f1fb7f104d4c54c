package scenario

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/scenariotest/pkg/archive"
	"github.com/arthur-debert/scenariotest/pkg/compare"
	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/fsutil"
	"github.com/arthur-debert/scenariotest/pkg/isolation"
	"github.com/arthur-debert/scenariotest/pkg/logging"
)

// CheckStrategy selects how the working directory is verified against the
// final state after the hook runs.
type CheckStrategy int

const (
	// FileContents compares the full trees, contents included.
	FileContents CheckStrategy = iota
	// FileNames only requires every expected entry to exist.
	FileNames
	// NoCheck skips verification entirely.
	NoCheck
)

// String returns the manifest spelling of the strategy.
func (s CheckStrategy) String() string {
	switch s {
	case FileContents:
		return "file_contents"
	case FileNames:
		return "file_names"
	case NoCheck:
		return "none"
	default:
		return "unknown"
	}
}

// ParseCheckStrategy maps a manifest or config value to a CheckStrategy.
func ParseCheckStrategy(value string) (CheckStrategy, error) {
	switch value {
	case "file_contents":
		return FileContents, nil
	case "file_names":
		return FileNames, nil
	case "none":
		return NoCheck, nil
	default:
		return 0, errors.Newf(errors.ErrInvalidInput,
			"unknown check strategy %q, want file_contents, file_names or none", value)
	}
}

// Hook is the operation under test. It runs with the isolated directory as
// the current working directory; workDir is its absolute path. A non-nil
// error fails the scenario.
type Hook func(name, workDir string) error

// CommandHook adapts an external command into a Hook. The command runs in
// the isolated directory; a non-zero exit status fails the scenario with the
// status code and the command's output in the message.
func CommandHook(argv ...string) Hook {
	return func(name, workDir string) error {
		if len(argv) == 0 {
			return errors.New(errors.ErrInvalidInput, "command hook needs at least one argument")
		}

		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Dir = workDir
		var output bytes.Buffer
		cmd.Stdout = &output
		cmd.Stderr = &output

		err := cmd.Run()
		if err == nil {
			return nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return errors.Newf(errors.ErrHookFailed, "%s exited with status %d: %s",
				strings.Join(argv, " "), exitErr.ExitCode(), strings.TrimSpace(output.String()))
		}
		return errors.Wrapf(err, errors.ErrHookFailed, "cannot run %s", strings.Join(argv, " "))
	}
}

// Status is the verdict of one scenario run.
type Status int

const (
	Passed Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "pass"
	case Failed:
		return "fail"
	case Skipped:
		return "skip"
	default:
		return "unknown"
	}
}

// Outcome reports one scenario run. Err carries harness trouble (broken
// manifest, isolation failure, unreadable state trees) as opposed to the
// scenario itself failing.
type Outcome struct {
	Name   string
	Status Status
	Detail string
	Err    error
}

// Runner drives every scenario under ScenariosDir.
type Runner struct {
	// ScenariosDir is the directory whose children are scanned for
	// scenarios.
	ScenariosDir string

	// Hook is the operation under test, invoked once per scenario.
	Hook Hook

	// Comparator verifies final states; nil means compare.New().
	Comparator *compare.Comparator

	// Connections are attached to every scenario's isolated directory.
	Connections []isolation.Connection

	// CheckStrategy is the default verification mode; manifests may
	// override it per scenario.
	CheckStrategy CheckStrategy

	// MatchFinalStateExactly forbids entries beyond the final state in the
	// working directory. On by default; clear it when hooks leave scratch
	// files the final state does not mention, or when connections add
	// entries to the working directory.
	MatchFinalStateExactly bool

	log zerolog.Logger
}

// NewRunner returns a Runner with default verification: full content
// comparison, exact final-state matching.
func NewRunner(scenariosDir string, hook Hook) *Runner {
	return &Runner{
		ScenariosDir:           scenariosDir,
		Hook:                   hook,
		Comparator:             compare.New(),
		MatchFinalStateExactly: true,
		log:                    logging.GetLogger("scenario"),
	}
}

// RunAll discovers every scenario and runs each as a named subtest.
// Harness errors abort the subtest; scenario failures report and let the
// remaining scenarios run.
func (r *Runner) RunAll(t *testing.T) {
	t.Helper()

	scenarios, err := Discover(r.ScenariosDir)
	if err != nil {
		t.Fatalf("scenario discovery failed: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatalf("no scenarios found under %s", r.ScenariosDir)
	}

	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			out := r.Execute(sc)
			switch {
			case out.Err != nil:
				t.Fatalf("scenario %s: %v", sc.Name, out.Err)
			case out.Status == Skipped:
				t.Skip(out.Detail)
			case out.Status == Failed:
				t.Errorf("scenario %s: %s", sc.Name, out.Detail)
			}
		})
	}
}

// ExecuteAll runs every discovered scenario in order and returns one
// Outcome each. Used by surfaces without a testing.T.
func (r *Runner) ExecuteAll() ([]Outcome, error) {
	scenarios, err := Discover(r.ScenariosDir)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, errors.Newf(errors.ErrNotFound, "no scenarios found under %s", r.ScenariosDir)
	}

	outcomes := make([]Outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		outcomes = append(outcomes, r.Execute(sc))
	}
	return outcomes, nil
}

// Execute runs one scenario through the five steps in strict order:
// isolate, populate, execute, verify, teardown. Teardown runs on every exit
// path, panics included.
func (r *Runner) Execute(sc Scenario) Outcome {
	if sc.Archive != "" {
		dir, cleanup, err := archive.TempExtract(sc.Archive)
		if err != nil {
			return Outcome{Name: sc.Name, Status: Failed, Err: err}
		}
		defer cleanup()

		resolved, err := resolvePacked(sc, dir)
		if err != nil {
			return Outcome{Name: sc.Name, Status: Failed, Err: err}
		}
		sc = resolved
	}

	if sc.Manifest.Skip {
		reason := sc.Manifest.SkipReason
		if reason == "" {
			reason = "skipped by manifest"
		}
		return Outcome{Name: sc.Name, Status: Skipped, Detail: reason}
	}

	strategy := r.CheckStrategy
	if sc.Manifest.CheckStrategy != "" {
		parsed, err := ParseCheckStrategy(sc.Manifest.CheckStrategy)
		if err != nil {
			return Outcome{Name: sc.Name, Status: Failed, Err: err}
		}
		strategy = parsed
	}
	exact := r.MatchFinalStateExactly
	if sc.Manifest.MatchFinalStateExactly != nil {
		exact = *sc.Manifest.MatchFinalStateExactly
	}

	m := isolation.New(r.Connections...)
	if err := m.Enter(); err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}
	defer func() {
		if err := m.Exit(); err != nil {
			r.log.Warn().Str("scenario", sc.Name).Err(err).Msg("isolation teardown failed")
		}
	}()

	r.log.Info().Str("scenario", sc.Name).Str("run_id", m.RunID()).Msg("running scenario")

	initialDir, cleanup, err := r.stateDir(sc.InitialState)
	if err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}
	defer cleanup()
	if err := fsutil.CopyTree(initialDir, m.WorkDir()); err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}

	if r.Hook == nil {
		return Outcome{Name: sc.Name, Status: Failed,
			Err: errors.New(errors.ErrInvalidInput, "no hook configured")}
	}
	if err := r.Hook(sc.Name, m.WorkDir()); err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Detail: fmt.Sprintf("hook failed: %v", err)}
	}

	switch strategy {
	case NoCheck:
		return Outcome{Name: sc.Name, Status: Passed}
	case FileNames:
		return r.verifyNames(sc, m.WorkDir(), exact)
	default:
		return r.verifyContents(sc, m.WorkDir(), exact)
	}
}

func (r *Runner) verifyContents(sc Scenario, workDir string, exact bool) Outcome {
	finalDir, cleanup, err := r.stateDir(sc.FinalState)
	if err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}
	defer cleanup()

	comparator := r.Comparator
	if comparator == nil {
		comparator = compare.New()
	}

	res, err := comparator.Directories(finalDir, workDir, !exact)
	if err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}
	if !res.Equal {
		return Outcome{Name: sc.Name, Status: Failed,
			Detail: fmt.Sprintf("final state does not match: %s", res.String())}
	}
	return Outcome{Name: sc.Name, Status: Passed}
}

// verifyNames checks entry presence only, ignoring contents. With exact on,
// entries beyond the final state also fail.
func (r *Runner) verifyNames(sc Scenario, workDir string, exact bool) Outcome {
	finalDir, cleanup, err := r.stateDir(sc.FinalState)
	if err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}
	defer cleanup()

	expected, err := relPaths(finalDir)
	if err != nil {
		return Outcome{Name: sc.Name, Status: Failed, Err: err}
	}

	var problems []string
	for _, rel := range expected {
		if _, err := os.Lstat(filepath.Join(workDir, rel)); err != nil {
			problems = append(problems, fmt.Sprintf("expected %s to exist", rel))
		}
	}

	if exact {
		actual, err := relPaths(workDir)
		if err != nil {
			return Outcome{Name: sc.Name, Status: Failed, Err: err}
		}
		known := make(map[string]bool, len(expected))
		for _, rel := range expected {
			known[rel] = true
		}
		for _, rel := range actual {
			if !known[rel] {
				problems = append(problems, fmt.Sprintf("unexpected entry %s", rel))
			}
		}
	}

	if len(problems) > 0 {
		return Outcome{Name: sc.Name, Status: Failed, Detail: strings.Join(problems, "; ")}
	}
	return Outcome{Name: sc.Name, Status: Passed}
}

// stateDir resolves a state path to a readable directory, temp-extracting
// archive-form states.
func (r *Runner) stateDir(statePath string) (string, func(), error) {
	if !archive.IsArchive(statePath) {
		return statePath, func() {}, nil
	}
	return archive.TempExtract(statePath)
}

func relPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot list %s", root)
	}
	return paths, nil
}
