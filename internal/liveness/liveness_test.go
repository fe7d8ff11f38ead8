package liveness

import (
	"testing"
	"time"
)

func TestNormalizeMillis(t *testing.T) {
	cases := []struct {
		raw    int64
		wantMS int64
		wantOK bool
	}{
		{1_699_999_999, 1_699_999_999_000, true},     // seconds
		{1_700_000_000_000, 1_700_000_000_000, true}, // already milliseconds
		{999_999_999, 0, false},                      // below plausibility floor
		{0, 0, false},
		{-5, 0, false},
	}
	for _, tc := range cases {
		ms, ok := NormalizeMillis(tc.raw)
		if ms != tc.wantMS || ok != tc.wantOK {
			t.Errorf("NormalizeMillis(%d) = (%d, %v), want (%d, %v)", tc.raw, ms, ok, tc.wantMS, tc.wantOK)
		}
	}
}

func TestIsOnlineSecondsInterpretation(t *testing.T) {
	// now is 1.7e12 ms; the raw timestamp is ~1 second earlier expressed
	// in seconds. Misreading it as milliseconds would make the reading
	// look ~53 years stale, so this asserts the seconds path is taken
	// for raw values below 1e12.
	now := time.UnixMilli(1_700_000_000_000)
	if !IsOnline(1_699_999_999, now) {
		t.Fatal("reading one second old (in seconds) must be online")
	}
}

func TestIsOnlineWindow(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	fresh := now.Add(-time.Minute).UnixMilli()
	if !IsOnline(fresh, now) {
		t.Fatal("one-minute-old reading should be online")
	}

	stale := now.Add(-3 * time.Minute).UnixMilli()
	if IsOnline(stale, now) {
		t.Fatal("three-minute-old reading should be offline")
	}

	if IsOnline(0, now) {
		t.Fatal("missing timestamp should be offline")
	}
}

func TestTimeSince(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tc := range cases {
		raw := now.Add(-tc.age).UnixMilli()
		if got := TimeSince(raw, now); got != tc.want {
			t.Errorf("TimeSince(age=%v) = %q, want %q", tc.age, got, tc.want)
		}
	}

	if got := TimeSince(12345, now); got != "just now" {
		t.Errorf("invalid timestamp should render as just now, got %q", got)
	}
}

func TestDisplayTimeFallback(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	fresh := now.Add(-10 * time.Minute)
	if got := DisplayTime(fresh.UnixMilli(), now); !got.Equal(fresh) {
		t.Fatalf("fresh reading should display its own time, got %v", got)
	}

	stale := now.Add(-2 * time.Hour)
	if got := DisplayTime(stale.UnixMilli(), now); !got.Equal(now) {
		t.Fatalf("stale reading should display now, got %v", got)
	}

	if got := DisplayTime(42, now); !got.Equal(now) {
		t.Fatalf("invalid timestamp should display now, got %v", got)
	}
}
