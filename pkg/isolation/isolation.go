package isolation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/logging"
)

// Manager owns one isolated working directory for the duration of one test.
// Enter and Exit must be paired; Setup wires the pair into testing.TB so
// teardown runs even when the test fails or panics.
type Manager struct {
	connections []Connection

	workDir string
	prevDir string
	runID   string
	log     zerolog.Logger
}

// New creates a Manager that will attach the given connections on Enter.
func New(connections ...Connection) *Manager {
	return &Manager{
		connections: connections,
		log:         logging.GetLogger("isolation"),
	}
}

// Setup enters isolation and registers teardown with the test. Setup
// failures abort the test before its body runs; teardown failures are
// logged without masking the test's own outcome.
func Setup(t testing.TB, connections ...Connection) *Manager {
	t.Helper()

	m := New(connections...)
	if err := m.Enter(); err != nil {
		t.Fatalf("isolation setup failed: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Exit(); err != nil {
			t.Logf("isolation teardown: %v", err)
		}
	})
	return m
}

// Enter creates a fresh temporary directory, switches the working
// directory to it and applies every declared connection. On any failure
// the partial state is rolled back before returning.
func (m *Manager) Enter() error {
	if m.workDir != "" {
		return errors.New(errors.ErrInternal, "isolation already entered")
	}

	prevDir, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, errors.ErrIsolationSetup, "cannot determine current working directory")
	}

	workDir, err := os.MkdirTemp("", "scenariotest-")
	if err != nil {
		return errors.Wrap(err, errors.ErrIsolationSetup, "cannot create isolated working directory")
	}

	if err := os.Chdir(workDir); err != nil {
		_ = os.RemoveAll(workDir)
		return errors.Wrapf(err, errors.ErrIsolationSetup, "cannot change into %s", workDir)
	}

	m.workDir = workDir
	m.prevDir = prevDir
	m.runID = uuid.NewString()
	m.log.Debug().Str("run_id", m.runID).Str("dir", workDir).Msg("entered isolated working directory")

	for _, conn := range m.connections {
		if err := m.connect(conn); err != nil {
			_ = m.Exit()
			return err
		}
	}
	return nil
}

// Exit restores the previous working directory and removes the isolated
// one with everything under it. Both steps are attempted unconditionally.
func (m *Manager) Exit() error {
	if m.workDir == "" {
		return nil
	}

	var firstErr error
	if err := os.Chdir(m.prevDir); err != nil {
		firstErr = errors.Wrapf(err, errors.ErrInternal, "cannot restore working directory %s", m.prevDir)
	}
	if err := os.RemoveAll(m.workDir); err != nil && firstErr == nil {
		firstErr = errors.Wrapf(err, errors.ErrInternal, "cannot remove %s", m.workDir)
	}

	m.log.Debug().Str("run_id", m.runID).Str("dir", m.workDir).Msg("left isolated working directory")
	m.workDir = ""
	m.prevDir = ""
	m.runID = ""
	return firstErr
}

// WorkDir returns the absolute path of the isolated directory, or "" when
// not entered.
func (m *Manager) WorkDir() string {
	return m.workDir
}

// RunID identifies one Enter/Exit cycle, for log correlation.
func (m *Manager) RunID() string {
	return m.runID
}

func (m *Manager) connect(conn Connection) error {
	external := conn.ExternalPath
	if !filepath.IsAbs(external) {
		external = filepath.Join(m.prevDir, external)
	}
	if _, err := os.Stat(external); err != nil {
		return errors.Newf(errors.ErrIsolationSetup, "cannot connect %s to test, does not exist", external)
	}

	internal := conn.InternalPath
	if internal == "" {
		internal = filepath.Base(external)
	}
	if dir := filepath.Dir(internal); dir != "." {
		if err := os.MkdirAll(filepath.Join(m.workDir, dir), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrIsolationSetup, "cannot create directory for %s", internal)
		}
	}

	strategy := conn.Strategy
	if strategy == nil {
		strategy = Symlink
	}

	m.log.Debug().
		Str("run_id", m.runID).
		Str("external", external).
		Str("internal", internal).
		Str("strategy", strategy.String()).
		Msg("connecting external resource")

	if err := strategy.Connect(external, internal); err != nil {
		if errors.IsErrorCode(err, errors.ErrIsolationSetup) {
			return err
		}
		return errors.Wrapf(err, errors.ErrIsolationSetup, "connection strategy %s failed for %s", strategy, internal)
	}
	return nil
}
