package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/client"
	"github.com/autobrr/tqv/pkg/notification"
	"github.com/autobrr/tqv/pkg/session"
	"github.com/autobrr/tqv/pkg/torrent"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [CLIENT] [ID...]",
	Short: "Resume torrents by id or by the configured resume filters",
	Long: `This command resumes the given torrent ids. Without ids, the client's queue is checked
for paused torrents to resume based on its configured filters.`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runControl(cmd, args, controlAction{
			name:   "resume",
			title:  "Torrent Resume",
			verb:   "Resumed",
			action: notification.ActionResume,
			check: func(c client.Interface, t *torrent.Torrent) (bool, error) {
				return c.CheckTorrentResume(t)
			},
			apply: func(ctx context.Context, s *session.Session, ids []uint64) error {
				return s.Resume(ctx, ids...)
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringVar(&flagFilterName, "filter", "", "Filter to use instead of client")
}
