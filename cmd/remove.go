package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/format"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/notification"
)

var flagDeleteData bool

var removeCmd = &cobra.Command{
	Use:   "remove [CLIENT] [ID]",
	Short: "Remove a torrent from the client",
	Long:  `This command removes a single torrent by its id, optionally deleting its downloaded data.`,

	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		start := time.Now()

		// init core
		if !initialized {
			initCore(true)
			initialized = true
		}

		// set log
		log := logger.GetLogger("remove")

		noti := notification.NewDiscordSender(log, config.Config.Notifications)

		ids, err := parseIDs(args[1:])
		if err != nil {
			log.WithError(err).Fatal("Failed parsing torrent id")
		}

		clientName := args[0]
		s, _ := newSession(ctx, log, clientName)

		if err := s.Refresh(ctx); err != nil {
			log.WithError(err).Fatal("Failed retrieving torrents")
		} else {
			log.Infof("Retrieved %d torrents", len(s.List()))
		}

		targets, err := lookupTorrents(s, ids)
		if err != nil {
			log.WithError(err).Fatal("Failed finding torrent")
		}
		t := targets[0]

		log.Info("-----")
		log.Infof("removing: %q - %s", t.Name, format.Bytes(t.DownloadedBytes))

		if !flagDryRun {
			if err := s.Remove(ctx, t.ID, flagDeleteData); err != nil {
				log.WithError(err).Fatalf("Failed removing torrent: %q", t.Name)
			}

			if flagDeleteData {
				log.Info("Removed with data")
			} else {
				log.Info("Removed (kept data on disk)")
			}
		} else {
			log.Warn("Dry-run enabled, skipping remove...")
		}

		if !noti.CanSend() {
			log.Debug("Notifications disabled, skipping...")
			return
		}

		field := noti.BuildField(notification.ActionRemove, notification.BuildOptions{
			Torrent:    t,
			DeleteData: flagDeleteData,
		})
		if err := noti.Send("Torrent Remove", fmt.Sprintf("Removed **%s**", t.Name), clientName,
			time.Since(start), []notification.Field{field}, flagDryRun); err != nil {
			log.WithError(err).Error("Failed sending notification")
		}
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().BoolVar(&flagDeleteData, "delete-data", false, "Delete downloaded data as well")
}
