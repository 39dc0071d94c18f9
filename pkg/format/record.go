package format

import (
	"github.com/autobrr/tqv/pkg/torrent"
)

// Present formats t into its interchange record. Rates are only carried
// while the torrent is downloading.
func Present(t torrent.Torrent) torrent.Record {
	r := torrent.Record{
		ID:         t.ID,
		Name:       t.Name,
		Progress:   t.Progress,
		Downloaded: Bytes(t.DownloadedBytes),
		Total:      Bytes(t.TotalBytes),
		Peers:      t.Peers,
		ETA:        ETA(t.ETA),
		Status:     t.Status,
	}

	if t.Status == torrent.StatusDownloading {
		if t.DownSpeed != nil {
			s := Rate(*t.DownSpeed)
			r.DownSpeed = &s
		}
		if t.UpSpeed != nil {
			s := Rate(*t.UpSpeed)
			r.UpSpeed = &s
		}
	}

	return r
}

func PresentAll(ts []torrent.Torrent) []torrent.Record {
	records := make([]torrent.Record, 0, len(ts))
	for _, t := range ts {
		records = append(records, Present(t))
	}

	return records
}

// Parse reads the formatted fields of r back into raw values. Any field
// outside the size, rate or ETA grammar fails the whole record.
func Parse(r torrent.Record) (torrent.Torrent, error) {
	t, unparsed, err := ParsePartial(r)
	if err != nil {
		return torrent.Torrent{}, err
	}
	if len(unparsed) > 0 {
		return torrent.Torrent{}, unparsed[0]
	}

	return t, nil
}

// ParsePartial is Parse for records whose display text is free-form. A field
// outside the grammar is reported in unparsed and read as unknown: zero
// bytes, an unknown ETA or an absent rate. err is only set when r itself is
// invalid.
func ParsePartial(r torrent.Record) (t torrent.Torrent, unparsed []error, err error) {
	if err := r.Validate(); err != nil {
		return torrent.Torrent{}, nil, err
	}

	t = torrent.Torrent{
		ID:       r.ID,
		Name:     r.Name,
		Progress: r.Progress,
		Peers:    r.Peers,
		Status:   r.Status,
		ETA:      torrent.UnknownETA,
	}

	fail := func(field string, err error) {
		unparsed = append(unparsed, &torrent.MalformedError{Field: field, Reason: err.Error()})
	}

	if n, err := ParseBytes(r.Downloaded); err != nil {
		fail("downloaded", err)
	} else {
		t.DownloadedBytes = n
	}
	if n, err := ParseBytes(r.Total); err != nil {
		fail("total", err)
	} else {
		t.TotalBytes = n
	}
	if d, err := ParseETA(r.ETA); err != nil {
		fail("eta", err)
	} else {
		t.ETA = d
	}

	if r.DownSpeed != nil {
		if v, err := ParseRate(*r.DownSpeed); err != nil {
			fail("downSpeed", err)
		} else {
			t.DownSpeed = &v
		}
	}
	if r.UpSpeed != nil {
		if v, err := ParseRate(*r.UpSpeed); err != nil {
			fail("upSpeed", err)
		} else {
			t.UpSpeed = &v
		}
	}

	return t, unparsed, nil
}
