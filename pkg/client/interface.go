package client

import (
	"context"

	"github.com/autobrr/tqv/pkg/torrent"
)

// Interface is a torrent client that produces torrent snapshots and accepts
// control operations. Torrents are keyed by the client's own hash.
type Interface interface {
	Type() string
	Connect(ctx context.Context) error
	GetTorrents(ctx context.Context) (map[string]torrent.Torrent, error)

	PauseTorrents(ctx context.Context, hashes []string) error
	ResumeTorrents(ctx context.Context, hashes []string) error
	RemoveTorrent(ctx context.Context, hash string, deleteData bool) (bool, error)

	ShouldIgnore(t *torrent.Torrent) (bool, error)
	CheckTorrentPause(t *torrent.Torrent) (bool, error)
	CheckTorrentResume(t *torrent.Torrent) (bool, error)
}
