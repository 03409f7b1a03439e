package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "quill.dev/pkg/quill/internal/model"
)

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check comments and documentation for spelling and grammar",
		Long:  checkLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindRunFlags(cmd)
			cmd.SilenceUsage = true

			s, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			s.printWarnings(cmd)

			report, err := s.workflow.Check(cmd.Context(), s.checkArgs(args))
			if err != nil {
				return err
			}

			return checkResult(report)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

// checkResult maps a finished report to the command's exit status.
func checkResult(report m.RunReport) error {
	if report.HasErrors() {
		return &exitError{code: exitFailure, msg: "some files could not be checked"}
	}

	if n := report.FindingsCount(); n > 0 {
		code := viper.GetInt(checkExitCodeKey)
		if code == exitClean {
			return nil
		}

		return &exitError{code: code, msg: fmt.Sprintf("%d finding(s)", n)}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
