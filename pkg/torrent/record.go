package torrent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is the interchange form of a torrent. Sizes, rates and the ETA
// are already formatted for display.
type Record struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"name"`
	Progress   float64 `json:"progress"`
	Downloaded string  `json:"downloaded"`
	Total      string  `json:"total"`
	Peers      int     `json:"peers"`
	ETA        string  `json:"eta"`
	Status     Status  `json:"status"`
	DownSpeed  *string `json:"downSpeed,omitempty"`
	UpSpeed    *string `json:"upSpeed,omitempty"`
}

var requiredFields = []string{"id", "name", "progress", "downloaded", "total", "peers", "eta", "status"}

// RequiredFields lists the JSON names every record must carry.
func RequiredFields() []string {
	out := make([]string, len(requiredFields))
	copy(out, requiredFields)
	return out
}

func (r Record) Validate() error {
	if !r.Status.Valid() {
		return malformed("status", "unknown value %q", string(r.Status))
	}
	if err := validateProgress(r.Progress); err != nil {
		return err
	}
	if r.Peers < 0 {
		return malformed("peers", "must not be negative, got %d", r.Peers)
	}

	return nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := Decode(data)
	if err != nil {
		return err
	}

	*r = rec
	return nil
}

// Decode parses a single JSON object into a Record. A missing required
// field, a field of the wrong JSON type or an out of range value yields a
// *MalformedError.
func Decode(data []byte) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Record{}, malformed("", "expected a JSON object: %v", err)
	}
	if fields == nil {
		return Record{}, malformed("", "expected a JSON object, got null")
	}

	for _, name := range requiredFields {
		if v, ok := fields[name]; !ok || isNull(v) {
			return Record{}, malformed(name, "missing required field")
		}
	}

	var r Record
	targets := []struct {
		name string
		dst  any
	}{
		{"id", &r.ID},
		{"name", &r.Name},
		{"progress", &r.Progress},
		{"downloaded", &r.Downloaded},
		{"total", &r.Total},
		{"peers", &r.Peers},
		{"eta", &r.ETA},
		{"status", &r.Status},
		{"downSpeed", &r.DownSpeed},
		{"upSpeed", &r.UpSpeed},
	}

	for _, t := range targets {
		v, ok := fields[t.name]
		if !ok {
			continue
		}
		if err := decodeField(t.name, v, t.dst); err != nil {
			return Record{}, err
		}
	}

	if err := r.Validate(); err != nil {
		return Record{}, err
	}

	return r, nil
}

// DecodeList parses a JSON array of records. The first malformed element
// aborts decoding; the error names its index.
func DecodeList(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, malformed("", "expected a JSON array: %v", err)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		r, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}

	return records, nil
}

func decodeField(name string, raw json.RawMessage, dst any) error {
	err := json.Unmarshal(raw, dst)
	if err == nil {
		return nil
	}

	var me *MalformedError
	if errors.As(err, &me) {
		return err
	}

	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return malformed(name, "expected %v, got JSON %s", te.Type, te.Value)
	}

	return malformed(name, "%v", err)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
