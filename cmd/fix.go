package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quill.dev/pkg/quill/internal/domain"
)

// fixCmd represents the fix command.
var fixCmd = newFixCmd()

func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Check and fix spelling and grammar in place",
		Long:  fixLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindRunFlags(cmd)
			bindFlagToConfig(cmd.Flags().Lookup(dryRunFlagName), fixDryRunKey)
			bindFlagToConfig(cmd.Flags().Lookup(modeFlagName), fixModeKey)
			cmd.SilenceUsage = true

			mode := viper.GetString(fixModeKey)
			if mode != fixModeInteractive && mode != fixModeBatch {
				return fmt.Errorf("unknown fix mode %q (want %s or %s)", mode, fixModeInteractive, fixModeBatch)
			}

			s, err := newSession(cmd, mode == fixModeInteractive)
			if err != nil {
				return err
			}
			defer s.Close()

			s.printWarnings(cmd)

			result, err := s.workflow.Fix(cmd.Context(), domain.FixArgs{
				CheckArgs: s.checkArgs(args),
				DryRun:    viper.GetBool(fixDryRunKey),
			})
			if err != nil {
				return err
			}

			for _, f := range result.Files {
				if f.Err != nil {
					return &exitError{code: exitFailure, msg: "some fixes could not be applied"}
				}
			}

			return nil
		},
	}

	configureRunFlags(cmd)
	cmd.Flags().Bool(dryRunFlagName, false, "print a unified diff instead of writing files")
	cmd.Flags().StringP(modeFlagName, "m", defaultFixMode, "review mode: interactive or batch")

	return cmd
}

func init() {
	rootCmd.AddCommand(fixCmd)
}
