package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/client"
	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/format"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/notification"
	"github.com/autobrr/tqv/pkg/session"
	"github.com/autobrr/tqv/pkg/torrent"
)

type controlAction struct {
	name   string
	title  string
	verb   string
	action notification.Action
	check  func(c client.Interface, t *torrent.Torrent) (bool, error)
	apply  func(ctx context.Context, s *session.Session, ids []uint64) error
}

func runControl(cmd *cobra.Command, args []string, a controlAction) {
	ctx := cmd.Context()
	start := time.Now()

	// init core
	if !initialized {
		initCore(true)
		initialized = true
	}

	// set log
	log := logger.GetLogger(a.name)

	noti := notification.NewDiscordSender(log, config.Config.Notifications)

	ids, err := parseIDs(args[1:])
	if err != nil {
		log.WithError(err).Fatal("Failed parsing torrent ids")
	}

	clientName := args[0]
	s, c := newSession(ctx, log, clientName)

	if err := s.Refresh(ctx); err != nil {
		log.WithError(err).Fatal("Failed retrieving torrents")
	} else {
		log.Infof("Retrieved %d torrents", len(s.List()))
	}

	targets, reason, err := planControl(log, s, c, ids, a.check)
	if err != nil {
		log.WithError(err).Fatalf("Failed selecting torrents to %s", a.name)
	}

	for _, t := range targets {
		log.Infof("%s #%d: %q - %s / %s", a.name, t.ID, t.Name, format.Percent(t.Progress), format.Bytes(t.TotalBytes))
	}

	if !flagDryRun {
		if len(targets) > 0 {
			if err := a.apply(ctx, s, torrentIDs(targets)); err != nil {
				log.WithError(err).Fatalf("Failed to %s torrents", a.name)
			}
			log.Infof("%s %d torrent(s)", a.verb, len(targets))
		} else {
			log.Infof("No torrents to %s", a.name)
		}
	} else {
		log.Infof("[DRY-RUN] Would %s %d torrent(s)", a.name, len(targets))
	}

	if !noti.CanSend() {
		log.Debug("Notifications disabled, skipping...")
		return
	}

	sendErr := noti.Send(
		a.title,
		fmt.Sprintf("%s **%d** torrent(s)", a.verb, len(targets)),
		clientName,
		time.Since(start),
		buildFields(noti, a.action, targets, reason),
		flagDryRun,
	)
	if sendErr != nil {
		log.WithError(sendErr).Error("Failed sending notification")
	}
}

// planControl resolves explicit ids, or runs the filter check over the
// current snapshot when no ids are given.
func planControl(log *logrus.Entry, s *session.Session, c client.Interface, ids []uint64,
	check func(client.Interface, *torrent.Torrent) (bool, error)) ([]torrent.Torrent, string, error) {
	if len(ids) > 0 {
		targets, err := lookupTorrents(s, ids)
		return targets, "", err
	}

	targets, err := selectByFilters(log, c, s.List(), func(t *torrent.Torrent) (bool, error) {
		return check(c, t)
	})
	if err != nil {
		return nil, "", err
	}

	reason := ""
	if len(targets) > 0 {
		reason = "filter"
		if flagFilterName != "" {
			reason = fmt.Sprintf("filter: %s", flagFilterName)
		}
	}

	return targets, reason, nil
}
