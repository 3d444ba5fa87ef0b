package cronexpr

import (
	"errors"
	"testing"
	"time"

	"asset_lifecycle_scheduler/internal/infra/logger"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestIsDue(t *testing.T) {
	m := NewMatcher(logger.Discard())
	utc := time.UTC

	tests := []struct {
		name string
		expr string
		ref  time.Time
		want bool
	}{
		{"midnight at midnight", "0 0 * * *", time.Date(2024, 1, 1, 0, 0, 0, 0, utc), true},
		{"midnight later in the minute", "0 0 * * *", time.Date(2024, 1, 1, 0, 0, 59, 0, utc), true},
		{"midnight one minute late", "0 0 * * *", time.Date(2024, 1, 1, 0, 1, 0, 0, utc), false},
		{"every minute", "* * * * *", time.Date(2024, 3, 9, 13, 27, 31, 0, utc), true},
		{"every quarter hour hit", "*/15 * * * *", time.Date(2024, 3, 9, 13, 45, 2, 0, utc), true},
		{"every quarter hour miss", "*/15 * * * *", time.Date(2024, 3, 9, 13, 46, 0, 0, utc), false},
		{"weekday only on sunday", "0 8 * * 1-5", time.Date(2024, 3, 10, 8, 0, 0, 0, utc), false},
		{"weekday only on monday", "0 8 * * 1-5", time.Date(2024, 3, 11, 8, 0, 0, 0, utc), true},
		{"descriptor", "@daily", time.Date(2024, 6, 1, 0, 0, 10, 0, utc), true},
		{"seconds field inside minute", "30 0 1 * * *", time.Date(2024, 6, 1, 1, 0, 0, 0, utc), true},
		{"invalid", "61 * * * *", time.Date(2024, 6, 1, 1, 0, 0, 0, utc), false},
		{"garbage", "whenever", time.Date(2024, 6, 1, 1, 0, 0, 0, utc), false},
		{"interval rejected", "@every 1m", time.Date(2024, 6, 1, 1, 0, 0, 0, utc), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsDue(tt.expr, tt.ref, utc); got != tt.want {
				t.Errorf("IsDue(%q, %s) = %v, want %v", tt.expr, tt.ref, got, tt.want)
			}
		})
	}
}

func TestIsDueUsesOwnerTimezone(t *testing.T) {
	m := NewMatcher(logger.Discard())
	tokyo := mustLoad(t, "Asia/Tokyo")

	// 00:00 in Tokyo is 15:00 UTC the previous day.
	ref := time.Date(2023, 12, 31, 15, 0, 0, 0, time.UTC)
	if !m.IsDue("0 0 * * *", ref, tokyo) {
		t.Error("expected midnight Tokyo to be due")
	}
	if m.IsDue("0 0 * * *", ref, time.UTC) {
		t.Error("15:00 UTC should not match midnight UTC")
	}
}

func TestDueThenDeduplicatedWithinMinute(t *testing.T) {
	m := NewMatcher(logger.Discard())
	loc := time.UTC
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)

	var lastRunAt *time.Time
	due := func(now time.Time) bool {
		if !m.IsDue("0 0 * * *", now, loc) {
			return false
		}
		return lastRunAt == nil || !SameMinute(*lastRunAt, now, loc)
	}

	if !due(first) {
		t.Fatal("first evaluation should be due")
	}
	lastRunAt = &first

	if due(first.Add(time.Second)) {
		t.Error("second evaluation in the same minute should not be due")
	}
}

func TestSameMinute(t *testing.T) {
	loc := time.UTC
	a := time.Date(2024, 5, 1, 10, 30, 0, 0, loc)
	if !SameMinute(a, a.Add(59*time.Second), loc) {
		t.Error("expected same minute")
	}
	if SameMinute(a, a.Add(time.Minute), loc) {
		t.Error("expected different minutes")
	}
	// Kathmandu is UTC+05:45; minute buckets still line up with UTC minutes.
	ktm := mustLoad(t, "Asia/Kathmandu")
	if !SameMinute(a, a.Add(30*time.Second), ktm) {
		t.Error("expected same minute in offset zone")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("0 9 * * 1"); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := Validate("0 9 * *"); err == nil {
		t.Error("Validate() accepted four fields")
	}
	if err := Validate("@every 10m"); !errors.Is(err, ErrIntervalNotSupported) {
		t.Errorf("Validate(@every) error = %v", err)
	}
}

func TestResolveLocation(t *testing.T) {
	log := logger.Discard()
	berlin := mustLoad(t, "Europe/Berlin")

	if got := ResolveLocation(log, "Europe/Berlin", "UTC"); got.String() != berlin.String() {
		t.Errorf("owner zone = %s", got)
	}
	if got := ResolveLocation(log, "", "UTC"); got.String() != "UTC" {
		t.Errorf("fallback zone = %s", got)
	}
	if got := ResolveLocation(log, "Mars/Olympus_Mons", "UTC"); got.String() != "UTC" {
		t.Errorf("unknown owner zone = %s, want UTC", got)
	}
	if got := ResolveLocation(log, "", ""); got != time.Local {
		t.Errorf("no zone = %s, want Local", got)
	}
}
