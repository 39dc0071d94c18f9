// Package session tracks the torrents of one client: it assigns the ids
// shown to users, keeps the latest snapshot and routes control operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tqv/pkg/client"
	"github.com/autobrr/tqv/pkg/format"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/torrent"
)

var ErrNotFound = errors.New("torrent not found")

type Option func(*Session)

// WithOnUpdate registers fn to be called with the listing after every refresh.
func WithOnUpdate(fn func([]torrent.Torrent)) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Session) {
		s.log = log
	}
}

type Session struct {
	client   client.Interface
	log      *logrus.Entry
	onUpdate func([]torrent.Torrent)

	mu       sync.RWMutex
	nextID   uint64
	ids      map[string]uint64
	hashes   map[uint64]string
	torrents map[uint64]torrent.Torrent
}

func New(c client.Interface, opts ...Option) *Session {
	s := &Session{
		client:   c,
		log:      logger.GetLogger("session"),
		nextID:   1,
		ids:      make(map[string]uint64),
		hashes:   make(map[uint64]string),
		torrents: make(map[uint64]torrent.Torrent),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Refresh polls the client once and publishes a new snapshot. Torrents the
// client no longer reports are dropped along with their ids.
func (s *Session) Refresh(ctx context.Context) error {
	polled, err := s.client.GetTorrents(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	// validate outside the lock, producers may hand back anything
	valid := make(map[string]torrent.Torrent, len(polled))
	for h, t := range polled {
		t.Hash = h
		if err := t.Validate(); err != nil {
			s.log.WithError(err).Warnf("Skipping torrent from client: %q", t.Name)
			continue
		}
		valid[h] = t
	}

	s.mu.Lock()

	seen := strset.NewWithSize(len(valid))
	next := make(map[uint64]torrent.Torrent, len(valid))

	// assign in hash order so ids do not depend on map iteration
	hashes := make([]string, 0, len(valid))
	for h := range valid {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	for _, h := range hashes {
		t := valid[h]
		t.ID = s.idFor(h, t.ID)
		next[t.ID] = t
		seen.Add(h)
	}

	for h, id := range s.ids {
		if !seen.Has(h) {
			s.log.Debugf("Torrent gone from client: %d (%s)", id, h)
			delete(s.ids, h)
			delete(s.hashes, id)
		}
	}

	s.torrents = next
	listing := s.listLocked()
	s.mu.Unlock()

	s.log.Tracef("Refreshed %d torrents", len(listing))
	if s.onUpdate != nil {
		s.onUpdate(listing)
	}

	return nil
}

// idFor returns the id already bound to hash, otherwise the id the producer
// proposed when it is free, otherwise the next unused id. Callers hold s.mu.
func (s *Session) idFor(hash string, proposed uint64) uint64 {
	if id, ok := s.ids[hash]; ok {
		return id
	}

	id := proposed
	if _, taken := s.hashes[id]; id == 0 || taken {
		id = s.nextID
		for {
			// 0 is never an id, skip it when the counter wraps
			if _, taken := s.hashes[id]; id != 0 && !taken {
				break
			}
			id++
		}
	}

	if id >= s.nextID && id < math.MaxUint64 {
		s.nextID = id + 1
	}

	s.ids[hash] = id
	s.hashes[id] = hash
	return id
}

// Run refreshes every interval until ctx is done. A failed refresh is
// logged and the previous snapshot stays published.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Error("Failed refreshing torrents")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.WithError(err).Error("Failed refreshing torrents")
			}
		}
	}
}

// List returns a copy of the current snapshot ordered by id.
func (s *Session) List() []torrent.Torrent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked()
}

func (s *Session) listLocked() []torrent.Torrent {
	out := make([]torrent.Torrent, 0, len(s.torrents))
	for _, t := range s.torrents {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Records returns the current snapshot formatted for display.
func (s *Session) Records() []torrent.Record {
	return format.PresentAll(s.List())
}

func (s *Session) Get(id uint64) (torrent.Torrent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.torrents[id]
	if !ok {
		return torrent.Torrent{}, false
	}

	return t.Clone(), true
}

func (s *Session) Pause(ctx context.Context, ids ...uint64) error {
	hashes, err := s.resolve(ids)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		return nil
	}

	if err := s.client.PauseTorrents(ctx, hashes); err != nil {
		return err
	}

	s.setStatus(ids, torrent.StatusPaused)
	return nil
}

func (s *Session) Resume(ctx context.Context, ids ...uint64) error {
	hashes, err := s.resolve(ids)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		return nil
	}

	if err := s.client.ResumeTorrents(ctx, hashes); err != nil {
		return err
	}

	s.setStatus(ids, torrent.StatusDownloading)
	return nil
}

func (s *Session) Remove(ctx context.Context, id uint64, deleteData bool) error {
	hashes, err := s.resolve([]uint64{id})
	if err != nil {
		return err
	}

	removed, err := s.client.RemoveTorrent(ctx, hashes[0], deleteData)
	if err != nil {
		return err
	} else if !removed {
		return fmt.Errorf("remove torrent %d: client refused", id)
	}

	s.mu.Lock()
	delete(s.torrents, id)
	delete(s.ids, hashes[0])
	delete(s.hashes, id)
	s.mu.Unlock()

	return nil
}

func (s *Session) resolve(ids []uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([]string, 0, len(ids))
	for _, id := range ids {
		h, ok := s.hashes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		hashes = append(hashes, h)
	}

	return hashes, nil
}

// setStatus reflects a control operation in the snapshot until the next refresh.
func (s *Session) setStatus(ids []uint64, status torrent.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		t, ok := s.torrents[id]
		if !ok {
			continue
		}

		t.Status = status
		if status == torrent.StatusPaused {
			t.DownSpeed = nil
			t.UpSpeed = nil
			t.ETA = torrent.UnknownETA
		}
		s.torrents[id] = t
	}
}
