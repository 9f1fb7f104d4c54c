package scenario

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// Manifest carries per-scenario overrides, read from an optional
// scenario.yaml next to the state trees. Unknown keys are rejected so typos
// fail loudly instead of silently running with defaults.
type Manifest struct {
	Description            string `yaml:"description"`
	CheckStrategy          string `yaml:"check_strategy"`
	MatchFinalStateExactly *bool  `yaml:"match_final_state_exactly"`
	Skip                   bool   `yaml:"skip"`
	SkipReason             string `yaml:"skip_reason"`
}

func loadManifest(path string) (Manifest, error) {
	var m Manifest

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, errors.Wrapf(err, errors.ErrInternal, "cannot open %s", path)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return m, errors.Wrapf(err, errors.ErrScenarioInvalid, "cannot parse %s", path)
	}

	if m.CheckStrategy != "" {
		if _, err := ParseCheckStrategy(m.CheckStrategy); err != nil {
			return m, errors.Wrapf(err, errors.ErrScenarioInvalid, "invalid check_strategy in %s", path)
		}
	}
	return m, nil
}
