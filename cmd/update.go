package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/runtime"
)

const repoSlug = "autobrr/tqv"

var flagUpdateCheck bool

var updateCmd = &cobra.Command{
	Use:           "update",
	Short:         "Update tqv",
	Long:          `Update tqv to the latest release, or only report it with --check.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		if flagUpdateCheck {
			latest, found, err := selfupdate.DetectLatest(cmd.Context(), selfupdate.ParseSlug(repoSlug))
			if err != nil {
				return fmt.Errorf("detect latest release: %w", err)
			} else if !found || latest.LessOrEqual(runtime.Version) {
				fmt.Printf("Current version %s is the latest\n", runtime.Version)
				return nil
			}

			fmt.Printf("New version available: %s (current %s)\n", latest.Version(), runtime.Version)
			return nil
		}

		release, err := selfupdate.UpdateSelf(cmd.Context(), runtime.Version, selfupdate.ParseSlug(repoSlug))
		if err != nil {
			return fmt.Errorf("could not update binary: %w", err)
		}

		fmt.Printf("Successfully updated to version: %s\n", release.Version())
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&flagUpdateCheck, "check", false, "Only report whether a newer release exists")

	rootCmd.AddCommand(updateCmd)
}
