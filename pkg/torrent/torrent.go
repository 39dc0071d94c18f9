// Package torrent holds the state snapshot of a single torrent: the raw
// entity produced by clients, and the pre-formatted record handed to
// whatever displays it.
package torrent

import (
	"math"
	"time"
)

// UnknownETA marks a torrent whose remaining time cannot be estimated.
const UnknownETA time.Duration = -1

type Torrent struct {
	// ID is assigned by the session and is stable while the torrent is listed.
	ID uint64
	// Hash is the key the producing client knows the torrent by.
	Hash string

	Name            string
	Progress        float64
	DownloadedBytes int64
	TotalBytes      int64
	Peers           int
	ETA             time.Duration
	Status          Status

	// bytes per second, nil when the client did not report a rate
	DownSpeed *int64
	UpSpeed   *int64
}

// New builds a Torrent and validates it.
func New(id uint64, name string, progress float64, downloaded, total int64, peers int, eta time.Duration, status Status) (Torrent, error) {
	t := Torrent{
		ID:              id,
		Name:            name,
		Progress:        progress,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		Peers:           peers,
		ETA:             eta,
		Status:          status,
	}

	if err := t.Validate(); err != nil {
		return Torrent{}, err
	}

	return t, nil
}

// Speed returns a pointer to v, for populating the optional rate fields.
func Speed(v int64) *int64 {
	return &v
}

func (t Torrent) Validate() error {
	if !t.Status.Valid() {
		return malformed("status", "unknown value %q", string(t.Status))
	}
	if err := validateProgress(t.Progress); err != nil {
		return err
	}
	if t.Peers < 0 {
		return malformed("peers", "must not be negative, got %d", t.Peers)
	}
	if t.DownloadedBytes < 0 {
		return malformed("downloaded", "must not be negative, got %d", t.DownloadedBytes)
	}
	if t.TotalBytes < 0 {
		return malformed("total", "must not be negative, got %d", t.TotalBytes)
	}
	if t.ETA < 0 && t.ETA != UnknownETA {
		return malformed("eta", "must not be negative, got %v", t.ETA)
	}
	if t.DownSpeed != nil && *t.DownSpeed < 0 {
		return malformed("downSpeed", "must not be negative, got %d", *t.DownSpeed)
	}
	if t.UpSpeed != nil && *t.UpSpeed < 0 {
		return malformed("upSpeed", "must not be negative, got %d", *t.UpSpeed)
	}

	return nil
}

// Clone returns a copy that shares no memory with t.
func (t Torrent) Clone() Torrent {
	if t.DownSpeed != nil {
		t.DownSpeed = Speed(*t.DownSpeed)
	}
	if t.UpSpeed != nil {
		t.UpSpeed = Speed(*t.UpSpeed)
	}

	return t
}

func validateProgress(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return malformed("progress", "must be within [0, 100], got %v", p)
	}

	return nil
}
