package maintenance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidCadence = errors.New("invalid maintenance cadence")

// CadenceUnit is the calendar unit a recurring record advances by.
type CadenceUnit string

const (
	CadenceDay   CadenceUnit = "day"
	CadenceWeek  CadenceUnit = "week"
	CadenceMonth CadenceUnit = "month"
	CadenceYear  CadenceUnit = "year"
)

// maxAdvanceSteps bounds AdvancePast so a tiny cadence over a very old date cannot spin forever.
const maxAdvanceSteps = 100000

// Cadence describes how often a recurring record repeats, e.g. every 3 months.
type Cadence struct {
	Unit  CadenceUnit
	Count int
}

// ParseCadenceUnit normalizes the stored unit, accepting plural forms ("months").
func ParseCadenceUnit(s string) CadenceUnit {
	u := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	return CadenceUnit(u)
}

func (c Cadence) String() string {
	return fmt.Sprintf("every %d %s(s)", c.Count, c.Unit)
}

// Validate returns ErrInvalidCadence for an unknown unit or a non-positive count.
func (c Cadence) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidCadence, c.Count)
	}
	switch c.Unit {
	case CadenceDay, CadenceWeek, CadenceMonth, CadenceYear:
		return nil
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidCadence, c.Unit)
	}
}

// Advance moves t forward by one cadence step using calendar arithmetic.
func (c Cadence) Advance(t time.Time) time.Time {
	switch c.Unit {
	case CadenceDay:
		return t.AddDate(0, 0, c.Count)
	case CadenceWeek:
		return t.AddDate(0, 0, 7*c.Count)
	case CadenceMonth:
		return t.AddDate(0, c.Count, 0)
	case CadenceYear:
		return t.AddDate(c.Count, 0, 0)
	default:
		return t
	}
}

// AdvancePast steps from forward until the result is strictly after now.
// Missed occurrences are skipped rather than back-filled.
func (c Cadence) AdvancePast(from, now time.Time) (time.Time, error) {
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}
	next := c.Advance(from)
	for i := 0; !next.After(now); i++ {
		if i >= maxAdvanceSteps {
			return time.Time{}, fmt.Errorf("%w: %s cannot reach %s from %s", ErrInvalidCadence, c, now.Format(time.RFC3339), from.Format(time.RFC3339))
		}
		next = c.Advance(next)
	}
	return next, nil
}
