// Package cmd provides the root command and CLI setup for quill.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	m "quill.dev/pkg/quill/internal/model"
)

// Exit statuses. Findings use the configurable check.exit_code.
const (
	exitClean   = 0
	exitFailure = 2
)

// noCacheFlag disables the incremental result cache when set.
var noCacheFlag bool

// verboseFlag switches the log level to debug.
var verboseFlag bool

// includePatterns and excludePatterns are root-level flags that filter files
// for every command.
var includePatterns []string
var excludePatterns []string

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

// exitCode maps a command error to a process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitClean
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	return exitFailure
}

const pathPatternsHelp = `Supports Go-style path patterns:
  - ./...          recursively scan current directory
  - ./pkg/...      recursively scan pkg directory
  - ./cmd ./pkg    scan multiple directories
  - README.md      check a single file`

const rootLongDescription = `Quill checks the spelling and grammar of the prose embedded in Go code:
doc comments, optionally other comments and string literals, and Markdown
files. Findings point at exact source positions and can be fixed in place.

` + pathPatternsHelp

const checkLongDescription = `Check the given paths (default: ./...) and report findings.

Exits with check.exit_code (default 1) when there are findings and with 2
when a file could not be checked.

` + pathPatternsHelp

const fixLongDescription = `Check the given paths (default: ./...) and apply fixes.

In interactive mode every suggestion is reviewed one at a time. In batch mode
the first candidate of every suggestion is applied.

` + pathPatternsHelp

const listLongDescription = `List source files with their prose fragment, chunk and word counts.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quill",
		Short: "Spelling and grammar checker for Go comments",
		Long:  rootLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&noCacheFlag, noCacheFlagName, viper.GetBool(noCacheFlagName), "disable the incremental result cache (re-check everything)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noCacheFlagName), noCacheFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringArrayVarP(&includePatterns, includeFlagName, "i", viper.GetStringSlice(includeConfigKey), "only check files matching glob (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(includeFlagName), includeConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files matching glob (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)
}

// configureRunFlags adds the flags shared by commands that check files.
// Several commands share these keys, so bindRunFlags binds them at run time.
func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP(runParallelFlagName, "p", defaultRunParallel, "number of parallel workers (0 uses every CPU)")
	cmd.Flags().Bool(failFastFlagName, defaultFailFast, "stop at the first file that cannot be checked")
}

func bindRunFlags(cmd *cobra.Command) {
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
	bindFlagToConfig(cmd.Flags().Lookup(failFastFlagName), failFastConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if code := exitCode(err); code != exitClean {
		os.Exit(code)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

// pathsOrDefault checks the current directory tree when no path was given.
func pathsOrDefault(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{"./..."}
	}

	return parsePaths(args)
}
