package config

import (
	"os"

	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/scenariotest/pkg/errors"
)

// WriteSample writes a starter config file with the default values filled in
// and one commented-out connection example. Fails if the file already
// exists.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf(errors.ErrInvalidInput, "%s already exists", path)
	}

	sample := Config{
		ScenariosDir:           "scenarios",
		CheckStrategy:          "file_contents",
		MatchFinalStateExactly: true,
		Digest:                 "sha256",
	}
	data, err := gotoml.Marshal(sample)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode sample configuration")
	}

	data = append(data, []byte(`
# External resources attached to every scenario's working directory:
#
# [[connections]]
# external = "../fixtures/shared"
# internal = "shared"
# strategy = "symlink"  # or "copy"
`)...)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot write %s", path)
	}
	return nil
}
