package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/packager/builtin"
	"github.com/oshokin/unipack/internal/runner"
)

// formatsCmd lists the installer formats available per platform.
var formatsCmd = &cobra.Command{
	Use:   "formats [platform]",
	Short: "List the supported installer formats per platform",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := builtin.NewRegistry(runner.NewExecRunner())
		if err != nil {
			return err
		}

		platforms := []packager.Platform{
			packager.PlatformLinux,
			packager.PlatformMacOS,
			packager.PlatformWindows,
		}

		if len(args) > 0 {
			platforms = []packager.Platform{packager.Platform(args[0])}
		}

		out := cmd.OutOrStdout()

		for _, platform := range platforms {
			fmt.Fprintf(out, "%s:", platform)

			for _, format := range registry.Formats(platform) {
				fmt.Fprintf(out, " %s", format)
			}

			fmt.Fprintln(out)
		}

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(formatsCmd)
}
