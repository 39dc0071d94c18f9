package client

import (
	"context"
	"fmt"
	"time"

	delugeclient "github.com/autobrr/go-deluge"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/expression"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/torrent"
)

/* Struct */

type Deluge struct {
	Host     *string `validate:"required"`
	Port     *uint   `validate:"required"`
	Login    *string `validate:"required"`
	Password *string `validate:"required"`
	V2       bool

	// internal
	filters
	log        *logrus.Entry
	clientType string
	client     *delugeclient.LabelPlugin
	client1    *delugeclient.Client
	client2    *delugeclient.ClientV2
}

/* Initializer */

func NewDeluge(name string, exp *expression.Expressions) (Interface, error) {
	tc := Deluge{
		filters:    newFilters(exp),
		log:        logger.GetLogger(name),
		clientType: "Deluge",
	}

	// load config
	if err := config.K.Unmarshal(fmt.Sprintf("clients%s%s", config.Delimiter, name), &tc); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// validate config
	if errs := config.ValidateStruct(tc); errs != nil {
		return nil, fmt.Errorf("validate config: %v", errs)
	}

	// init client
	settings := delugeclient.Settings{
		Hostname: *tc.Host,
		Port:     *tc.Port,
		Login:    *tc.Login,
		Password: *tc.Password,
	}

	if tc.V2 {
		tc.client2 = delugeclient.NewV2(settings)
	} else {
		tc.client1 = delugeclient.NewV1(settings)
	}

	return &tc, nil
}

/* Interface  */

func (c *Deluge) Type() string {
	return c.clientType
}

func (c *Deluge) Connect(ctx context.Context) error {
	var err error

	// connect to deluge daemon
	c.log.Tracef("Connecting to %s:%d", *c.Host, *c.Port)

	if c.V2 {
		err = c.client2.Connect(ctx)
	} else {
		err = c.client1.Connect(ctx)
	}

	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// the label plugin wraps whichever daemon client is in use
	var lc *delugeclient.LabelPlugin

	if c.V2 {
		lc, err = c.client2.LabelPlugin(ctx)
	} else {
		lc, err = c.client1.LabelPlugin(ctx)
	}

	if err != nil {
		return fmt.Errorf("get label plugin: %w", err)
	}

	// retrieve daemon version
	daemonVersion, err := lc.DaemonVersion(ctx)
	if err != nil {
		return fmt.Errorf("get daemon version: %w", err)
	}
	c.log.Debugf("Daemon Version: %v", daemonVersion)

	c.client = lc
	return nil
}

func (c *Deluge) GetTorrents(ctx context.Context) (map[string]torrent.Torrent, error) {
	// retrieve torrents from client
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.TorrentsStatus(ctx, delugeclient.StateUnspecified, nil)
	if err != nil {
		return nil, fmt.Errorf("get torrents: %w", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	// build torrent list
	torrents := make(map[string]torrent.Torrent, len(t))
	for h, t := range t {
		if t == nil {
			continue
		}

		tr := torrent.Torrent{
			Hash:            h,
			Name:            t.Name,
			Progress:        clampProgress(float64(t.Progress)),
			DownloadedBytes: max(int64(t.TotalDone), 0),
			TotalBytes:      max(int64(t.TotalSize), 0),
			Peers:           max(int(t.NumPeers)+int(t.NumSeeds), 0),
			ETA:             torrent.UnknownETA,
			Status:          delugeStatus(t.State),
		}

		if tr.Status == torrent.StatusDownloading {
			if eta := int64(t.ETA); eta > 0 {
				tr.ETA = time.Duration(eta) * time.Second
			} else if tr.Progress >= 100 {
				tr.ETA = 0
			}

			tr.DownSpeed = torrent.Speed(max(int64(t.DownloadPayloadRate), 0))
			tr.UpSpeed = torrent.Speed(max(int64(t.UploadPayloadRate), 0))
		}

		torrents[h] = tr
	}

	return torrents, nil
}

func delugeStatus(state string) torrent.Status {
	if state == "Paused" {
		return torrent.StatusPaused
	}

	return torrent.StatusDownloading
}

func (c *Deluge) PauseTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.PauseTorrents(ctx, hashes...); err != nil {
		return fmt.Errorf("pause torrents: %v: %w", hashes, err)
	}

	return nil
}

func (c *Deluge) ResumeTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.ResumeTorrents(ctx, hashes...); err != nil {
		return fmt.Errorf("resume torrents: %v: %w", hashes, err)
	}

	return nil
}

func (c *Deluge) RemoveTorrent(ctx context.Context, hash string, deleteData bool) (bool, error) {
	if ok, err := c.client.RemoveTorrent(ctx, hash, deleteData); err != nil {
		return false, fmt.Errorf("remove torrent: %v: %w", hash, err)
	} else if !ok {
		return false, fmt.Errorf("remove torrent: %v", hash)
	}

	return true, nil
}
