package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/tqv/pkg/torrent"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{-10, "0 B"},
		{512, "512 B"},
		{2_100_000_000, "2.1 GB"},
		{4_700_000_000, "4.7 GB"},
		{1_200_000, "1.2 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in), "%d", tt.in)
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, "1.2 MB/s", Rate(1_200_000))
	assert.Equal(t, "0 B/s", Rate(0))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "45.0%", Percent(45))
	assert.Equal(t, "66.5%", Percent(66.5))
}

func TestETA(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{15*time.Minute + 32*time.Second, "00:15:32"},
		{17 * time.Second, "00:00:17"},
		{0, "00:00:00"},
		{100*time.Hour + time.Second, "100:00:01"},
		{1500 * time.Millisecond, "00:00:01"},
		{torrent.UnknownETA, UnknownETA},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ETA(tt.in), "%v", tt.in)
	}
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:15:32", want: 15*time.Minute + 32*time.Second},
		{in: "100:00:01", want: 100*time.Hour + time.Second},
		{in: "17s", want: 17 * time.Second},
		{in: "1h2m", want: time.Hour + 2*time.Minute},
		{in: "—", want: torrent.UnknownETA},
		{in: "N/A", want: torrent.UnknownETA},
		{in: "∞", want: torrent.UnknownETA},
		{in: "", want: torrent.UnknownETA},
		{in: "00:61:00", wantErr: true},
		{in: "aa:00:00", wantErr: true},
		{in: "-5s", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseETA(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBytesAndRate(t *testing.T) {
	n, err := ParseBytes("2.1 GB")
	require.NoError(t, err)
	assert.Equal(t, int64(2_100_000_000), n)

	n, err = ParseRate("0.3 MB/s")
	require.NoError(t, err)
	assert.Equal(t, int64(300_000), n)

	_, err = ParseRate("0.3 MB")
	assert.Error(t, err)

	_, err = ParseBytes("lots")
	assert.Error(t, err)
}

func TestPresent(t *testing.T) {
	tr := torrent.Torrent{
		ID:              1,
		Hash:            "abc",
		Name:            "ubuntu.iso",
		Progress:        45,
		DownloadedBytes: 2_100_000_000,
		TotalBytes:      4_700_000_000,
		Peers:           12,
		ETA:             15*time.Minute + 32*time.Second,
		Status:          torrent.StatusDownloading,
		DownSpeed:       torrent.Speed(1_200_000),
		UpSpeed:         torrent.Speed(300_000),
	}

	r := Present(tr)
	require.NoError(t, r.Validate())
	assert.Equal(t, uint64(1), r.ID)
	assert.Equal(t, "2.1 GB", r.Downloaded)
	assert.Equal(t, "4.7 GB", r.Total)
	assert.Equal(t, "00:15:32", r.ETA)
	require.NotNil(t, r.DownSpeed)
	assert.Equal(t, "1.2 MB/s", *r.DownSpeed)
	require.NotNil(t, r.UpSpeed)
	assert.Equal(t, "300 kB/s", *r.UpSpeed)
}

func TestPresent_PausedDropsRates(t *testing.T) {
	r := Present(torrent.Torrent{
		ID:              2,
		Name:            "debian.iso",
		Progress:        100,
		DownloadedBytes: 4_700_000_000,
		TotalBytes:      4_700_000_000,
		ETA:             torrent.UnknownETA,
		Status:          torrent.StatusPaused,
		DownSpeed:       torrent.Speed(0),
	})

	assert.Nil(t, r.DownSpeed)
	assert.Nil(t, r.UpSpeed)
	assert.Equal(t, "—", r.ETA)
}

func TestParse_InvertsPresent(t *testing.T) {
	orig := torrent.Torrent{
		ID:              7,
		Name:            "fedora-live.iso",
		Progress:        66.5,
		DownloadedBytes: 2_600_000_000,
		TotalBytes:      3_900_000_000,
		Peers:           111,
		ETA:             17 * time.Second,
		Status:          torrent.StatusDownloading,
		DownSpeed:       torrent.Speed(6_000_000),
	}

	got, err := Parse(Present(orig))
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestParse_Rejects(t *testing.T) {
	base := torrent.Record{
		ID:         2,
		Name:       "debian.iso",
		Progress:   100,
		Downloaded: "4.7 GB",
		Total:      "4.7 GB",
		ETA:        "—",
		Status:     torrent.StatusPaused,
	}
	_, err := Parse(base)
	require.NoError(t, err)

	bad := "fast"
	tests := []struct {
		name   string
		mutate func(*torrent.Record)
		field  string
	}{
		{"downloaded", func(r *torrent.Record) { r.Downloaded = "a lot" }, "downloaded"},
		{"total", func(r *torrent.Record) { r.Total = "" }, "total"},
		{"eta", func(r *torrent.Record) { r.ETA = "tomorrow" }, "eta"},
		{"down_speed", func(r *torrent.Record) { r.DownSpeed = &bad }, "downSpeed"},
		{"up_speed", func(r *torrent.Record) { r.UpSpeed = &bad }, "upSpeed"},
		{"status", func(r *torrent.Record) { r.Status = "seeding" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)

			_, err := Parse(r)
			var me *torrent.MalformedError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.field, me.Field)
		})
	}
}

func TestParsePartial_FreeFormText(t *testing.T) {
	rate := "1.2 MB/s"
	r := torrent.Record{
		ID:         3,
		Name:       "arch.iso",
		Progress:   10,
		Downloaded: "unknown",
		Total:      "1.1 GB",
		Peers:      4,
		ETA:        "about 3 minutes",
		Status:     torrent.StatusDownloading,
		DownSpeed:  &rate,
	}

	got, unparsed, err := ParsePartial(r)
	require.NoError(t, err)
	require.Len(t, unparsed, 2)

	fields := make([]string, 0, len(unparsed))
	for _, e := range unparsed {
		var me *torrent.MalformedError
		require.ErrorAs(t, e, &me)
		fields = append(fields, me.Field)
	}
	assert.Equal(t, []string{"downloaded", "eta"}, fields)
	assert.Contains(t, unparsed[0].Error(), `"unknown"`)

	assert.Equal(t, int64(0), got.DownloadedBytes)
	assert.Equal(t, int64(1_100_000_000), got.TotalBytes)
	assert.Equal(t, torrent.UnknownETA, got.ETA)
	require.NotNil(t, got.DownSpeed)
	assert.Equal(t, int64(1_200_000), *got.DownSpeed)

	_, err = Parse(r)
	assert.ErrorIs(t, err, torrent.ErrMalformed)
}

func TestParsePartial_InvalidRecord(t *testing.T) {
	_, _, err := ParsePartial(torrent.Record{ID: 1, Name: "x", Peers: -1, Status: torrent.StatusPaused})
	assert.ErrorIs(t, err, torrent.ErrMalformed)
}
