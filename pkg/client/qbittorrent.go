package client

import (
	"context"
	"fmt"
	"time"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/expression"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/sliceutils"
	"github.com/autobrr/tqv/pkg/torrent"
)

// qBittorrent reports this ETA when it has no estimate
const qbitInfiniteETA = 8640000

var qbitPausedStates = []string{
	"pausedDL",
	"pausedUP",
	"stoppedDL",
	"stoppedUP",
}

/* Struct */

type QBittorrent struct {
	Url      *string `validate:"required"`
	User     string
	Password string

	// internal
	filters
	log        *logrus.Entry
	clientType string
	client     *qbit.Client
}

/* Initializer */

func NewQBittorrent(name string, exp *expression.Expressions) (Interface, error) {
	tc := QBittorrent{
		filters:    newFilters(exp),
		log:        logger.GetLogger(name),
		clientType: "qBittorrent",
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
	tc.client = qbit.NewClient(qbit.Config{
		Host:          *tc.Url,
		Username:      tc.User,
		Password:      tc.Password,
		TLSSkipVerify: true,
		BasicUser:     tc.User,
		BasicPass:     tc.Password,
		Log:           nil,
	})

	return &tc, nil
}

/* Interface  */

func (c *QBittorrent) Type() string {
	return c.clientType
}

func (c *QBittorrent) Connect(context.Context) error {
	// login
	if err := c.client.Login(); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	// retrieve api version
	apiVersion, err := c.client.GetWebAPIVersion()
	if err != nil {
		return fmt.Errorf("get api version: %w", err)
	}

	c.log.Debugf("API Version: %v", apiVersion)
	return nil
}

func (c *QBittorrent) GetTorrents(ctx context.Context) (map[string]torrent.Torrent, error) {
	// retrieve torrents from client
	c.log.Tracef("Retrieving torrents...")
	t, err := c.client.GetTorrentsCtx(ctx, qbit.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("get torrents: %w", err)
	}
	c.log.Tracef("Retrieved %d torrents", len(t))

	// build torrent list
	torrents := make(map[string]torrent.Torrent, len(t))
	for _, t := range t {
		torrents[t.Hash] = qbitTorrent(t)
	}

	return torrents, nil
}

func qbitTorrent(t qbit.Torrent) torrent.Torrent {
	status := qbitStatus(string(t.State))

	eta := torrent.UnknownETA
	if secs := int64(t.ETA); secs >= 0 && secs < qbitInfiniteETA {
		eta = time.Duration(secs) * time.Second
	}

	tr := torrent.Torrent{
		Hash:            t.Hash,
		Name:            t.Name,
		Progress:        clampProgress(float64(t.Progress) * 100),
		DownloadedBytes: max(int64(t.Downloaded), 0),
		TotalBytes:      max(int64(t.Size), 0),
		Peers:           max(int(t.NumSeeds)+int(t.NumLeechs), 0),
		ETA:             eta,
		Status:          status,
	}

	if status == torrent.StatusDownloading {
		tr.DownSpeed = torrent.Speed(max(int64(t.DlSpeed), 0))
		tr.UpSpeed = torrent.Speed(max(int64(t.UpSpeed), 0))
	} else {
		tr.ETA = torrent.UnknownETA
	}

	return tr
}

// qbitStatus folds qBittorrent's state names onto the two record states.
// Anything that is not stopped by the user counts as downloading.
func qbitStatus(state string) torrent.Status {
	if sliceutils.StringSliceContains(qbitPausedStates, state, true) {
		return torrent.StatusPaused
	}

	return torrent.StatusDownloading
}

func (c *QBittorrent) PauseTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.PauseCtx(ctx, hashes); err != nil {
		return fmt.Errorf("pause torrents: %v: %w", hashes, err)
	}
	return nil
}

func (c *QBittorrent) ResumeTorrents(ctx context.Context, hashes []string) error {
	if err := c.client.ResumeCtx(ctx, hashes); err != nil {
		return fmt.Errorf("resume torrents: %v: %w", hashes, err)
	}
	return nil
}

func (c *QBittorrent) RemoveTorrent(ctx context.Context, hash string, deleteData bool) (bool, error) {
	if err := c.client.DeleteTorrentsCtx(ctx, []string{hash}, deleteData); err != nil {
		return false, fmt.Errorf("delete torrent: %v: %w", hash, err)
	}

	return true, nil
}
