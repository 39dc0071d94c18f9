package torrent

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	for _, s := range []string{"", "seeding", "completed", "error", "queued", "DOWNLOADING"} {
		_, err := ParseStatus(s)
		assert.Error(t, err, s)
	}
}

func TestStatuses_Closed(t *testing.T) {
	assert.ElementsMatch(t, []Status{"downloading", "paused"}, Statuses())
}

func TestNew(t *testing.T) {
	tr, err := New(1, "ubuntu.iso", 45, 2_100_000_000, 4_700_000_000, 12, 15*time.Minute, StatusDownloading)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tr.ID)
	assert.Nil(t, tr.DownSpeed)
	assert.Nil(t, tr.UpSpeed)
}

func TestTorrent_Validate(t *testing.T) {
	valid := Torrent{
		ID:       1,
		Name:     "ubuntu.iso",
		Progress: 45,
		Peers:    12,
		ETA:      UnknownETA,
		Status:   StatusPaused,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Torrent)
		field  string
	}{
		{"bad_status", func(t *Torrent) { t.Status = "seeding" }, "status"},
		{"empty_status", func(t *Torrent) { t.Status = "" }, "status"},
		{"negative_peers", func(t *Torrent) { t.Peers = -1 }, "peers"},
		{"progress_nan", func(t *Torrent) { t.Progress = math.NaN() }, "progress"},
		{"progress_over", func(t *Torrent) { t.Progress = 101 }, "progress"},
		{"negative_downloaded", func(t *Torrent) { t.DownloadedBytes = -1 }, "downloaded"},
		{"negative_total", func(t *Torrent) { t.TotalBytes = -1 }, "total"},
		{"negative_eta", func(t *Torrent) { t.ETA = -time.Second }, "eta"},
		{"negative_down_speed", func(t *Torrent) { t.DownSpeed = Speed(-5) }, "downSpeed"},
		{"negative_up_speed", func(t *Torrent) { t.UpSpeed = Speed(-5) }, "upSpeed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)

			err := tr.Validate()
			var me *MalformedError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.field, me.Field)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestTorrent_Clone(t *testing.T) {
	orig := Torrent{ID: 3, Status: StatusDownloading, DownSpeed: Speed(10), UpSpeed: Speed(20)}

	c := orig.Clone()
	*c.DownSpeed = 99
	*c.UpSpeed = 99

	assert.Equal(t, int64(10), *orig.DownSpeed)
	assert.Equal(t, int64(20), *orig.UpSpeed)
}
