package client

import (
	"fmt"
	"math"
	"strings"

	"github.com/autobrr/tqv/pkg/expression"
	"github.com/autobrr/tqv/pkg/torrent"
)

func NewClient(clientType string, clientName string, exp *expression.Expressions) (Interface, error) {
	switch strings.ToLower(clientType) {
	case "qbittorrent":
		return NewQBittorrent(clientName, exp)
	case "deluge":
		return NewDeluge(clientName, exp)
	case "file":
		return NewFile(clientName, exp)
	default:
		return nil, fmt.Errorf("client type not implemented: %q", clientType)
	}
}

// filters evaluates the compiled filter expressions shared by every client.
type filters struct {
	exp *expression.Expressions
}

func newFilters(exp *expression.Expressions) filters {
	if exp == nil {
		exp = new(expression.Expressions)
	}
	return filters{exp: exp}
}

func (f filters) ShouldIgnore(t *torrent.Torrent) (bool, error) {
	match, err := expression.CheckTorrentSingleMatch(t, f.exp.Ignores)
	if err != nil {
		return true, fmt.Errorf("check ignore expression: %v: %w", t.Hash, err)
	}

	return match, nil
}

func (f filters) CheckTorrentPause(t *torrent.Torrent) (bool, error) {
	if t.Status == torrent.StatusPaused {
		return false, nil
	}

	match, err := expression.CheckTorrentSingleMatch(t, f.exp.Pauses)
	if err != nil {
		return false, fmt.Errorf("check pause expression: %v: %w", t.Hash, err)
	}

	return match, nil
}

func (f filters) CheckTorrentResume(t *torrent.Torrent) (bool, error) {
	if t.Status != torrent.StatusPaused {
		return false, nil
	}

	match, err := expression.CheckTorrentSingleMatch(t, f.exp.Resumes)
	if err != nil {
		return false, fmt.Errorf("check resume expression: %v: %w", t.Hash, err)
	}

	return match, nil
}

func clampProgress(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}

	return p
}
