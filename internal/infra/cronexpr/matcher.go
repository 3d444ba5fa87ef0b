// Package cronexpr decides whether cron expressions are due in a given minute.
package cronexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var ErrIntervalNotSupported = errors.New("@every intervals are not supported")

// Five fields, an optional leading seconds field, or a descriptor such as @daily.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Matcher evaluates schedules against whole-minute buckets.
type Matcher struct {
	logger *logrus.Entry
}

func NewMatcher(logger *logrus.Entry) *Matcher {
	return &Matcher{logger: logger}
}

// Parse returns the schedule for expr.
func Parse(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "@every") {
		return nil, ErrIntervalNotSupported
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return sched, nil
}

// Validate reports whether expr can be matched.
func Validate(expr string) error {
	_, err := Parse(expr)
	return err
}

// IsDue reports whether expr fires within the minute containing ref, as seen from loc.
// Invalid expressions are logged and never due.
func (m *Matcher) IsDue(expr string, ref time.Time, loc *time.Location) bool {
	sched, err := Parse(expr)
	if err != nil {
		m.logger.WithError(err).WithField("cron", expr).Warn("Invalid cron expression, treating as not due")
		return false
	}
	start := MinuteStart(ref, loc)
	next := sched.Next(start.Add(-time.Nanosecond))
	return !next.IsZero() && next.Before(start.Add(time.Minute))
}

// MinuteStart truncates t to the start of its minute in loc.
func MinuteStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), 0, 0, loc)
}

// SameMinute reports whether a and b fall in the same wall-clock minute in loc.
func SameMinute(a, b time.Time, loc *time.Location) bool {
	return MinuteStart(a, loc).Equal(MinuteStart(b, loc))
}

// ResolveLocation loads name, then fallback, then time.Local. Unknown zones are logged.
func ResolveLocation(logger *logrus.Entry, name, fallback string) *time.Location {
	for _, candidate := range []string{name, fallback} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		loc, err := time.LoadLocation(candidate)
		if err != nil {
			logger.WithError(err).WithField("timezone", candidate).Warn("Unknown timezone, falling back")
			continue
		}
		return loc
	}
	return time.Local
}
