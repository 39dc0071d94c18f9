package torrent

import "fmt"

// Status is the lifecycle state reported for a torrent.
// Only the values below are representable in a record.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusPaused      Status = "paused"
)

var statuses = []Status{StatusDownloading, StatusPaused}

// Statuses returns every accepted status value.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, v := range statuses {
		if s == v {
			return true
		}
	}

	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus returns the Status named by s. Matching is exact.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}

	return st, nil
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, &MalformedError{Field: "status", Reason: fmt.Sprintf("unknown value %q", string(s))}
	}

	return []byte(s), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return &MalformedError{Field: "status", Reason: err.Error()}
	}

	*s = st
	return nil
}
