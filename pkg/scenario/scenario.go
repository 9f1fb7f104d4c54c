// Package scenario discovers and runs filesystem scenarios: directory trees
// that pair an initial state with an expected final state. Each scenario runs
// in its own isolated working directory, executes a caller-provided hook and
// verifies the directory against the final state.
package scenario

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/scenariotest/pkg/archive"
	"github.com/arthur-debert/scenariotest/pkg/errors"
)

const (
	initialStateStem = "initial_state"
	finalStateStem   = "final_state"
	manifestName     = "scenario.yaml"
)

// Scenario is one discovered case: a name, the paths of its two state trees
// (each either a directory or an archive) and its optional manifest. A
// scenario may also ship as a single archive holding both states; then
// Archive is set and the states and manifest are resolved after extraction,
// at run time.
type Scenario struct {
	Name         string
	Dir          string
	Archive      string
	InitialState string
	FinalState   string
	Manifest     Manifest
}

// Discover scans the immediate children of scenariosDir. A child directory
// containing both an initial_state and a final_state entry is a scenario;
// directories missing either are skipped without comment. State entries may
// be directories or archives whose stem matches (initial_state.tar.gz and
// the like); more than one entry matching the same stem is an error. An
// archive child of scenariosDir is a packed scenario named after its stem,
// expected to hold both states at its root.
func Discover(scenariosDir string) ([]Scenario, error) {
	entries, err := os.ReadDir(scenariosDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "%s does not exist", scenariosDir)
		}
		return nil, errors.Wrapf(err, errors.ErrInternal, "cannot list %s", scenariosDir)
	}

	var scenarios []Scenario
	for _, entry := range entries {
		if !entry.IsDir() {
			if archive.IsArchive(entry.Name()) {
				scenarios = append(scenarios, Scenario{
					Name:    archive.Stem(entry.Name()),
					Archive: filepath.Join(scenariosDir, entry.Name()),
				})
			}
			continue
		}
		dir := filepath.Join(scenariosDir, entry.Name())

		initial, err := findState(dir, initialStateStem)
		if err != nil {
			return nil, err
		}
		final, err := findState(dir, finalStateStem)
		if err != nil {
			return nil, err
		}
		if initial == "" || final == "" {
			continue
		}

		manifest, err := loadManifest(filepath.Join(dir, manifestName))
		if err != nil {
			return nil, err
		}

		scenarios = append(scenarios, Scenario{
			Name:         entry.Name(),
			Dir:          dir,
			InitialState: initial,
			FinalState:   final,
			Manifest:     manifest,
		})
	}
	return scenarios, nil
}

// resolvePacked locates the states and manifest of a packed scenario inside
// its extracted tree.
func resolvePacked(sc Scenario, dir string) (Scenario, error) {
	initial, err := findState(dir, initialStateStem)
	if err != nil {
		return Scenario{}, err
	}
	final, err := findState(dir, finalStateStem)
	if err != nil {
		return Scenario{}, err
	}
	if initial == "" || final == "" {
		return Scenario{}, errors.Newf(errors.ErrScenarioInvalid,
			"%s does not contain both an initial_state and a final_state", sc.Archive)
	}

	manifest, err := loadManifest(filepath.Join(dir, manifestName))
	if err != nil {
		return Scenario{}, err
	}

	sc.Dir = dir
	sc.InitialState = initial
	sc.FinalState = final
	sc.Manifest = manifest
	return sc, nil
}

// findState returns the path of the directory or archive matching stem inside
// dir, "" when absent, or an error when the stem is ambiguous.
func findState(dir, stem string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInternal, "cannot list %s", dir)
	}

	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if name == stem {
				matches = append(matches, name)
			}
			continue
		}
		if archive.IsArchive(name) && archive.Stem(name) == stem {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return filepath.Join(dir, matches[0]), nil
	default:
		return "", errors.Newf(errors.ErrScenarioInvalid,
			"%s has %d entries matching %s, want one", dir, len(matches), stem)
	}
}
