package notification

import (
	"time"

	"github.com/autobrr/tqv/pkg/torrent"
)

type Action int

const (
	ActionPause Action = iota + 1
	ActionResume
	ActionRemove
)

type Sender interface {
	CanSend() bool
	Send(title string, description string, client string, runTime time.Duration, fields []Field, dryRun bool) error
	BuildField(action Action, options BuildOptions) Field
	Name() string
}

type Field struct {
	Name  string
	Value string
}

type BuildOptions struct {
	Torrent torrent.Torrent

	// Reason is the filter expression that selected the torrent, if any
	Reason string

	DeleteData bool
}
