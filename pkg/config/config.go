// Package config loads harness configuration the same way on every surface:
// built-in defaults, then an optional scenariotest.toml in the working
// directory, then SCENARIOTEST_ environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/scenariotest/pkg/compare"
	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/isolation"
	"github.com/arthur-debert/scenariotest/pkg/scenario"
)

const envPrefix = "SCENARIOTEST_"

// configFileNames are tried in order; the first match wins.
var configFileNames = []string{".scenariotest.toml", "scenariotest.toml"}

// Connection declares one external resource in the config file.
type Connection struct {
	External string `koanf:"external" toml:"external"`
	Internal string `koanf:"internal" toml:"internal"`
	Strategy string `koanf:"strategy" toml:"strategy"`
}

// Config is the merged harness configuration.
type Config struct {
	ScenariosDir           string       `koanf:"scenarios_dir" toml:"scenarios_dir"`
	CheckStrategy          string       `koanf:"check_strategy" toml:"check_strategy"`
	MatchFinalStateExactly bool         `koanf:"match_final_state_exactly" toml:"match_final_state_exactly"`
	Digest                 string       `koanf:"digest" toml:"digest"`
	Connections            []Connection `koanf:"connections" toml:"connections"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"scenarios_dir":             "scenarios",
		"check_strategy":            "file_contents",
		"match_final_state_exactly": true,
		"digest":                    "sha256",
	}
}

// Load merges defaults, the first config file found in dir (dir "" means the
// current directory) and SCENARIOTEST_ environment variables, in that order.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load defaults")
	}

	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "cannot parse %s", path)
		}
		break
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "cannot decode configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := scenario.ParseCheckStrategy(c.CheckStrategy); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid check_strategy")
	}
	if _, err := compare.HashByName(c.Digest); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid digest")
	}
	for _, conn := range c.Connections {
		if conn.External == "" {
			return errors.New(errors.ErrConfigParse, "connection without an external path")
		}
		if _, err := parseStrategy(conn.Strategy); err != nil {
			return err
		}
	}
	return nil
}

// Runner builds a scenario Runner from the configuration. The hook is
// supplied by the caller; everything else comes from the config.
func (c *Config) Runner(hook scenario.Hook) (*scenario.Runner, error) {
	strategy, err := scenario.ParseCheckStrategy(c.CheckStrategy)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid check_strategy")
	}
	hashFunc, err := compare.HashByName(c.Digest)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid digest")
	}
	connections, err := c.IsolationConnections()
	if err != nil {
		return nil, err
	}

	comparator := compare.New()
	comparator.Hash = hashFunc

	runner := scenario.NewRunner(c.ScenariosDir, hook)
	runner.Comparator = comparator
	runner.Connections = connections
	runner.CheckStrategy = strategy
	runner.MatchFinalStateExactly = c.MatchFinalStateExactly
	return runner, nil
}

// IsolationConnections maps the configured connections to isolation ones.
func (c *Config) IsolationConnections() ([]isolation.Connection, error) {
	connections := make([]isolation.Connection, 0, len(c.Connections))
	for _, conn := range c.Connections {
		strategy, err := parseStrategy(conn.Strategy)
		if err != nil {
			return nil, err
		}
		connections = append(connections, isolation.Connection{
			ExternalPath: conn.External,
			InternalPath: conn.Internal,
			Strategy:     strategy,
		})
	}
	return connections, nil
}

func parseStrategy(value string) (isolation.Strategy, error) {
	switch value {
	case "", "symlink":
		return isolation.Symlink, nil
	case "copy":
		return isolation.Copy, nil
	default:
		return nil, errors.Newf(errors.ErrConfigParse,
			"unknown connection strategy %q, want symlink or copy", value)
	}
}
