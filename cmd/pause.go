package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/client"
	"github.com/autobrr/tqv/pkg/notification"
	"github.com/autobrr/tqv/pkg/session"
	"github.com/autobrr/tqv/pkg/torrent"
)

var pauseCmd = &cobra.Command{
	Use:   "pause [CLIENT] [ID...]",
	Short: "Pause torrents by id or by the configured pause filters",
	Long: `This command pauses the given torrent ids. Without ids, the client's queue is checked
for torrents to pause based on its configured filters.`,

	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runControl(cmd, args, controlAction{
			name:   "pause",
			title:  "Torrent Pause",
			verb:   "Paused",
			action: notification.ActionPause,
			check: func(c client.Interface, t *torrent.Torrent) (bool, error) {
				return c.CheckTorrentPause(t)
			},
			apply: func(ctx context.Context, s *session.Session, ids []uint64) error {
				return s.Pause(ctx, ids...)
			},
		})
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)

	pauseCmd.Flags().StringVar(&flagFilterName, "filter", "", "Filter to use instead of client")
}
