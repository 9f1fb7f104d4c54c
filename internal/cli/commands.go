// Package cli assembles the scenariotest command line: compare two paths,
// run a scenario suite against an external command, write a starter config.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/scenariotest/internal/version"
	"github.com/arthur-debert/scenariotest/pkg/compare"
	"github.com/arthur-debert/scenariotest/pkg/config"
	"github.com/arthur-debert/scenariotest/pkg/errors"
	"github.com/arthur-debert/scenariotest/pkg/logging"
	"github.com/arthur-debert/scenariotest/pkg/scenario"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "scenariotest",
		Short: "Scenario-based filesystem testing",
		Long: `scenariotest verifies filesystem operations against scenarios: an initial
directory tree, an operation, and the expected final tree. It compares
directories, archives, text and binary files, and runs whole scenario suites
against an external command.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newCompareCmd() *cobra.Command {
	var (
		superset bool
		digest   string
	)

	cmd := &cobra.Command{
		Use:   "compare EXPECTED ACTUAL",
		Short: "Compare two paths of any kind",
		Long: `Compare two paths, picking the comparison by what each path is: directory
trees entry by entry, archives by extracted contents, text files line by line
ignoring line-ending style, and other files by content digest.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashFunc, err := compare.HashByName(digest)
			if err != nil {
				return err
			}

			comparator := compare.New()
			comparator.Hash = hashFunc

			res, err := comparator.Paths(args[0], args[1], superset)
			if err != nil {
				if errors.IsErrorCode(err, errors.ErrKindMismatch) {
					fmt.Fprintln(cmd.OutOrStdout(), err.Error())
					return errors.New(errors.ErrKindMismatch, "paths differ")
				}
				return err
			}
			if !res.Equal {
				fmt.Fprintln(cmd.OutOrStdout(), res.String())
				return errors.New(errors.ErrInvalidInput, "paths differ")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "paths match")
			return nil
		},
	}

	cmd.Flags().BoolVar(&superset, "superset", false, "Tolerate extra entries in the actual tree (top level only)")
	cmd.Flags().StringVar(&digest, "digest", "sha256", "Digest for binary comparison (sha256 or blake3)")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		scenariosDir string
		command      []string
	)

	cmd := &cobra.Command{
		Use:   "run --command CMD [ARGS...]",
		Short: "Run every scenario against a command",
		Long: `Run each scenario under the scenarios directory: populate an isolated
working directory with the initial state, run the command in it and verify
the result against the final state. Configuration comes from
.scenariotest.toml / scenariotest.toml and SCENARIOTEST_ environment
variables; flags override both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if scenariosDir != "" {
				cfg.ScenariosDir = scenariosDir
			}
			if len(command) == 0 {
				return errors.New(errors.ErrInvalidInput, "--command is required")
			}

			runner, err := cfg.Runner(scenario.CommandHook(command...))
			if err != nil {
				return err
			}

			outcomes, err := runner.ExecuteAll()
			if err != nil {
				return err
			}

			failed := 0
			for _, out := range outcomes {
				switch out.Status {
				case scenario.Failed:
					failed++
					detail := out.Detail
					if out.Err != nil {
						detail = out.Err.Error()
					}
					fmt.Fprintf(cmd.OutOrStdout(), "fail  %s: %s\n", out.Name, detail)
				case scenario.Skipped:
					fmt.Fprintf(cmd.OutOrStdout(), "skip  %s: %s\n", out.Name, out.Detail)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "pass  %s\n", out.Name)
				}
			}
			if failed > 0 {
				return errors.Newf(errors.ErrInternal, "%d of %d scenarios failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenariosDir, "scenarios-dir", "", "Directory holding the scenarios (overrides config)")
	cmd.Flags().StringArrayVar(&command, "command", nil, "Command to run in each scenario's working directory")
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter scenariotest.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "scenariotest.toml"
			if err := config.WriteSample(path); err != nil {
				return err
			}
			abs, err := os.Getwd()
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s/%s\n", abs, path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including commit hash and build date`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scenariotest version %s\n", version.Version)
			if version.Commit != "" {
				fmt.Printf("Commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				fmt.Printf("Built:  %s\n", version.Date)
			}
		},
	}
}
