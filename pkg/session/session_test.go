package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/tqv/pkg/torrent"
)

type fakeClient struct {
	mu       sync.Mutex
	torrents map[string]torrent.Torrent
	err      error

	paused  []string
	resumed []string
	removed []string
}

func (f *fakeClient) Type() string                  { return "fake" }
func (f *fakeClient) Connect(context.Context) error { return nil }

func (f *fakeClient) GetTorrents(context.Context) (map[string]torrent.Torrent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	out := make(map[string]torrent.Torrent, len(f.torrents))
	for h, t := range f.torrents {
		out[h] = t.Clone()
	}
	return out, nil
}

func (f *fakeClient) PauseTorrents(_ context.Context, hashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = append(f.paused, hashes...)
	return f.err
}

func (f *fakeClient) ResumeTorrents(_ context.Context, hashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = append(f.resumed, hashes...)
	return f.err
}

func (f *fakeClient) RemoveTorrent(_ context.Context, hash string, _ bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, hash)
	delete(f.torrents, hash)
	return f.err == nil, f.err
}

func (f *fakeClient) ShouldIgnore(*torrent.Torrent) (bool, error)       { return false, nil }
func (f *fakeClient) CheckTorrentPause(*torrent.Torrent) (bool, error)  { return false, nil }
func (f *fakeClient) CheckTorrentResume(*torrent.Torrent) (bool, error) { return false, nil }

func (f *fakeClient) set(hash string, t torrent.Torrent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.torrents[hash] = t
}

func (f *fakeClient) drop(hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.torrents, hash)
}

func downloading(name string) torrent.Torrent {
	return torrent.Torrent{
		Name:      name,
		Progress:  10,
		Peers:     3,
		ETA:       time.Minute,
		Status:    torrent.StatusDownloading,
		DownSpeed: torrent.Speed(1000),
	}
}

func newFake() *fakeClient {
	return &fakeClient{torrents: map[string]torrent.Torrent{
		"bbb": downloading("b.iso"),
		"aaa": downloading("a.iso"),
	}}
}

func TestSession_AssignsStableIDs(t *testing.T) {
	ctx := context.Background()
	fc := newFake()
	s := New(fc)

	require.NoError(t, s.Refresh(ctx))
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[0].ID)
	assert.Equal(t, "aaa", list[0].Hash)
	assert.Equal(t, uint64(2), list[1].ID)
	assert.Equal(t, "bbb", list[1].Hash)

	fc.set("000", downloading("zero.iso"))
	require.NoError(t, s.Refresh(ctx))

	list = s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "aaa", list[0].Hash, "existing ids are kept")
	assert.Equal(t, "bbb", list[1].Hash)
	assert.Equal(t, uint64(3), list[2].ID)
	assert.Equal(t, "000", list[2].Hash)
}

func TestSession_DropsVanishedTorrents(t *testing.T) {
	ctx := context.Background()
	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	fc.drop("aaa")
	require.NoError(t, s.Refresh(ctx))

	_, ok := s.Get(1)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Pause(ctx, 1), ErrNotFound)

	// a returning hash gets a fresh id
	fc.set("aaa", downloading("a.iso"))
	require.NoError(t, s.Refresh(ctx))
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint64(3), list[1].ID)
}

func TestSession_HonorsProposedIDs(t *testing.T) {
	ctx := context.Background()
	a := downloading("a.iso")
	a.ID = 7
	b := downloading("b.iso")
	b.ID = 7
	fc := &fakeClient{torrents: map[string]torrent.Torrent{"7": a, "8": b}}

	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint64(7), list[0].ID)
	assert.Equal(t, "7", list[0].Hash)
	assert.Equal(t, uint64(8), list[1].ID, "a taken proposal falls back to the next free id")
}

func TestSession_ProposedMaxIDDoesNotWrap(t *testing.T) {
	ctx := context.Background()
	a := downloading("a.iso")
	a.ID = math.MaxUint64
	fc := &fakeClient{torrents: map[string]torrent.Torrent{"aaa": a, "bbb": downloading("b.iso")}}

	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, uint64(1), list[0].ID)
	assert.Equal(t, "bbb", list[0].Hash)
	assert.Equal(t, uint64(math.MaxUint64), list[1].ID)
	assert.Equal(t, "aaa", list[1].Hash)

	fc.set("ccc", downloading("c.iso"))
	require.NoError(t, s.Refresh(ctx))

	for _, tr := range s.List() {
		assert.NotZero(t, tr.ID, tr.Hash)
	}
	c, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, "ccc", c.Hash)
}

func TestSession_IDCounterSkipsZero(t *testing.T) {
	s := New(newFake())
	s.nextID = math.MaxUint64
	s.ids["max"] = math.MaxUint64
	s.hashes[math.MaxUint64] = "max"

	assert.Equal(t, uint64(1), s.idFor("aaa", 0))
	assert.Equal(t, uint64(2), s.idFor("bbb", 0))
}

func TestSession_ConcurrentReadersAndRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	var wg sync.WaitGroup

	// writer: torrents come and go while readers hold snapshots
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				fc.set("ccc", downloading("c.iso"))
			} else {
				fc.drop("ccc")
			}
			assert.NoError(t, s.Refresh(ctx))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				list := s.List()
				assert.GreaterOrEqual(t, len(list), 2)
				for j := 1; j < len(list); j++ {
					assert.Less(t, list[j-1].ID, list[j].ID)
				}

				if tr, ok := s.Get(1); ok {
					assert.Equal(t, "aaa", tr.Hash)
					// readers own their copy
					*tr.DownSpeed = 0
				}
				_ = s.Records()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, s.Pause(ctx, 2))
			assert.NoError(t, s.Resume(ctx, 2))
		}
	}()

	wg.Wait()

	a, ok := s.Get(1)
	require.True(t, ok)
	require.NotNil(t, a.DownSpeed)
	assert.Equal(t, int64(1000), *a.DownSpeed)
}

func TestSession_SkipsInvalidTorrents(t *testing.T) {
	fc := newFake()
	bad := downloading("bad.iso")
	bad.Peers = -1
	fc.set("ccc", bad)

	s := New(fc)
	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.List(), 2)
}

func TestSession_RefreshErrorKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	fc.err = errors.New("boom")
	assert.Error(t, s.Refresh(ctx))
	assert.Len(t, s.List(), 2)
}

func TestSession_PauseResume(t *testing.T) {
	ctx := context.Background()
	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	require.NoError(t, s.Pause(ctx, 1, 2))
	assert.Equal(t, []string{"aaa", "bbb"}, fc.paused)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, torrent.StatusPaused, got.Status)
	assert.Nil(t, got.DownSpeed)

	require.NoError(t, s.Resume(ctx, 2))
	assert.Equal(t, []string{"bbb"}, fc.resumed)
	got, _ = s.Get(2)
	assert.Equal(t, torrent.StatusDownloading, got.Status)

	assert.ErrorIs(t, s.Resume(ctx, 1, 99), ErrNotFound)
	assert.Equal(t, []string{"bbb"}, fc.resumed, "nothing is sent when an id is unknown")

	assert.NoError(t, s.Pause(ctx))
}

func TestSession_Remove(t *testing.T) {
	ctx := context.Background()
	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(ctx))

	require.NoError(t, s.Remove(ctx, 2, false))
	assert.Equal(t, []string{"bbb"}, fc.removed)
	_, ok := s.Get(2)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Remove(ctx, 2, false), ErrNotFound)

	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.List(), 1)
}

func TestSession_ListIsACopy(t *testing.T) {
	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(context.Background()))

	list := s.List()
	list[0].Name = "changed"
	*list[0].DownSpeed = 0

	got, _ := s.Get(1)
	assert.Equal(t, "a.iso", got.Name)
	assert.Equal(t, int64(1000), *got.DownSpeed)
}

func TestSession_Records(t *testing.T) {
	fc := newFake()
	s := New(fc)
	require.NoError(t, s.Refresh(context.Background()))

	records := s.Records()
	require.Len(t, records, 2)
	for _, r := range records {
		require.NoError(t, r.Validate())
		require.NotNil(t, r.DownSpeed)
		assert.Equal(t, "1.0 kB/s", *r.DownSpeed)
		assert.Equal(t, "00:01:00", r.ETA)
	}
}

func TestSession_RunPublishes(t *testing.T) {
	fc := newFake()
	updates := make(chan []torrent.Torrent, 16)
	s := New(fc, WithOnUpdate(func(ts []torrent.Torrent) {
		select {
		case updates <- ts:
		default:
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 10*time.Millisecond) }()

	first := <-updates
	assert.Len(t, first, 2)

	fc.set("ccc", downloading("c.iso"))
	require.Eventually(t, func() bool {
		return len(s.List()) == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
