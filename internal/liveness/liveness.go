// Package liveness decides whether a station's most recent telemetry is
// recent enough to call the station "online", and renders relative
// timestamps for display.
package liveness

import (
	"fmt"
	"time"
)

const (
	// millisThreshold separates unix-second from unix-millisecond
	// timestamps. The bridge payload does not tag the unit and firmware
	// revisions disagree, so values below 1e12 are assumed to be
	// seconds. TODO: have the bridge emit an explicit unit-tagged
	// timestamp so this heuristic can go away.
	millisThreshold = int64(1e12)

	// minPlausible rejects timestamps before Sep 2001 (1e9 seconds) as
	// garbage, most often an unset RTC reporting near zero.
	minPlausible = int64(1e9)
)

// OnlineWindow is how recent a reading must be for its station to count
// as currently reporting.
const OnlineWindow = 2 * time.Minute

// staleDisplayCutoff is how old a reading may be before display call
// sites prefer the current time over a clearly wrong historical one.
const staleDisplayCutoff = time.Hour

// NormalizeMillis converts a raw reading timestamp into unix
// milliseconds. ok is false when the raw value is too small to be a
// plausible timestamp in any unit.
func NormalizeMillis(raw int64) (ms int64, ok bool) {
	if raw < minPlausible {
		return 0, false
	}
	if raw < millisThreshold {
		return raw * 1000, true
	}
	return raw, true
}

// IsOnline reports whether a reading with the given raw timestamp is
// within the online window of now.
func IsOnline(raw int64, now time.Time) bool {
	ms, ok := NormalizeMillis(raw)
	if !ok {
		return false
	}
	return now.UnixMilli()-ms < OnlineWindow.Milliseconds()
}

// TimeSince renders the age of a reading as a coarse human string,
// preferring the largest nonzero unit.
func TimeSince(raw int64, now time.Time) string {
	ms, ok := NormalizeMillis(raw)
	if !ok {
		return "just now"
	}

	elapsed := now.Sub(time.UnixMilli(ms))
	switch {
	case elapsed >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours())/24)
	case elapsed >= time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed >= time.Minute:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	default:
		return "just now"
	}
}

// DisplayTime returns the reading's own time when it is fresh, and now
// when the reading is invalid or over an hour stale. This is a display
// fallback only; it makes no claim about the underlying reading.
func DisplayTime(raw int64, now time.Time) time.Time {
	ms, ok := NormalizeMillis(raw)
	if !ok {
		return now
	}
	t := time.UnixMilli(ms)
	if now.Sub(t) > staleDisplayCutoff {
		return now
	}
	return t
}
