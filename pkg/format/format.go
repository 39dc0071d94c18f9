// Package format converts between raw torrent values and their display
// strings. Byte counts use SI units as rendered by go-humanize.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/autobrr/tqv/pkg/torrent"
)

// UnknownETA is shown when no estimate is available.
const UnknownETA = "—"

const rateSuffix = "/s"

var unknownETAs = []string{"", UnknownETA, "-", "∞", "n/a", "unknown"}

func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}

	return humanize.Bytes(uint64(n))
}

func Rate(bytesPerSecond int64) string {
	return Bytes(bytesPerSecond) + rateSuffix
}

func Percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// ETA renders d as HH:MM:SS. Hours are not capped at two digits.
func ETA(d time.Duration) string {
	if d < 0 {
		return UnknownETA
	}

	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

func ParseBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size out of range: %q", s)
	}

	return int64(n), nil
}

func ParseRate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, rateSuffix) {
		return 0, fmt.Errorf("rate without %q suffix: %q", rateSuffix, s)
	}

	return ParseBytes(strings.TrimSuffix(s, rateSuffix))
}

// ParseETA accepts HH:MM:SS, Go duration strings such as "17s", and the
// unknown sentinels ("—", "N/A", "∞", empty).
func ParseETA(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, u := range unknownETAs {
		if strings.EqualFold(s, u) {
			return torrent.UnknownETA, nil
		}
	}

	if parts := strings.Split(s, ":"); len(parts) == 3 {
		return parseClock(parts)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse eta: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative eta: %q", s)
	}

	return d, nil
}

func parseClock(parts []string) (time.Duration, error) {
	var v [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("parse eta: invalid clock component %q", p)
		}
		if i > 0 && n > 59 {
			return 0, fmt.Errorf("parse eta: clock component out of range %q", p)
		}
		v[i] = n
	}

	return time.Duration(v[0])*time.Hour + time.Duration(v[1])*time.Minute + time.Duration(v[2])*time.Second, nil
}
