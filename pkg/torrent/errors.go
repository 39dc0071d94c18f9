package torrent

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every record validation failure.
var ErrMalformed = errors.New("malformed torrent record")

// MalformedError names the offending field of a rejected record.
type MalformedError struct {
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrMalformed, e.Reason)
	}

	return fmt.Sprintf("%v: %s: %s", ErrMalformed, e.Field, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

func malformed(field string, format string, args ...any) error {
	return &MalformedError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
