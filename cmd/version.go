package cmd

import (
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	m "quill.dev/pkg/quill/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the Go version used to build quill and the available checker backends.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			backends := make([]string, 0, len(m.Detectors))
			for _, d := range m.Detectors {
				backends = append(backends, d.String())
			}

			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("quill version\t unknown")
			} else {
				cmd.Println("quill version\t", info.Main.Version)
				cmd.Println("go version\t", info.GoVersion)
			}

			cmd.Println("backends\t", strings.Join(backends, ", "))
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
