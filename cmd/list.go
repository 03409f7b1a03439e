package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List source files and their prose chunks",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindRunFlags(cmd)
			cmd.SilenceUsage = true

			s, err := newSession(cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.workflow.List(cmd.Context(), s.checkArgs(args))

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
