// Package when turns the free-text reminder phrases typed into the control
// panel ("in 10m", "in 1h30m", "tomorrow 7:30am", "today 19:00") into an
// absolute local time.
package when

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDelay is used when nothing else matches.
const DefaultDelay = 15 * time.Minute

// MaxMinutes bounds relative offsets so the result stays representable in
// epoch milliseconds. Larger offsets are treated as malformed.
const MaxMinutes = 144_000_000_000

var (
	reInMinutes = regexp.MustCompile(`^in\s*(\d+)\s*m(in(utes)?)?$`)
	// The trailing group after the minutes is accepted and ignored, so
	// "in 1h30mins" and "in 1h30m please" both match.
	reInHours  = regexp.MustCompile(`^in\s*(\d+)\s*h(ours?)?(?:\s*(\d+)\s*m(.*)?)?$`)
	reTomorrow = regexp.MustCompile(`^tomorrow\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	reToday    = regexp.MustCompile(`^today\s+(\d{1,2})(?::(\d{2}))?$`)
)

// Parser resolves phrases relative to Now.
type Parser struct {
	Now func() time.Time
}

// Parse resolves a phrase against the current wall clock.
func Parse(raw, fallbackTimeOfDay string) time.Time {
	return Parser{}.Parse(raw, fallbackTimeOfDay)
}

// Parse tries, in order: "in N m", "in N h [M m]", "tomorrow H[:MM][am|pm]",
// "today H[:MM]", then fallbackTimeOfDay as HH:MM (rolled to tomorrow when
// already past), and finally now + DefaultDelay.
func (p Parser) Parse(raw, fallbackTimeOfDay string) time.Time {
	now := p.now()

	if s := strings.ToLower(strings.TrimSpace(raw)); s != "" {
		if m := reInMinutes.FindStringSubmatch(s); m != nil {
			if n, ok := minutes(m[1]); ok {
				return after(now, n)
			}
		} else if m := reInHours.FindStringSubmatch(s); m != nil {
			hrs, okH := minutes(m[1])
			mins, okM := minutes(m[3])
			if okH && okM && hrs <= (MaxMinutes-mins)/60 {
				return after(now, hrs*60+mins)
			}
		} else if m := reTomorrow.FindStringSubmatch(s); m != nil {
			hr, min := atoi(m[1]), atoi(m[2])
			switch m[3] {
			case "pm":
				if hr < 12 {
					hr += 12
				}
			case "am":
				if hr == 12 {
					hr = 0
				}
			}
			return at(now.AddDate(0, 0, 1), hr, min)
		} else if m := reToday.FindStringSubmatch(s); m != nil {
			return at(now, atoi(m[1]), atoi(m[2]))
		}
	}

	if hh, mm, ok := timeOfDay(fallbackTimeOfDay); ok {
		t := at(now, hh, mm)
		if t.Before(now) {
			t = t.AddDate(0, 0, 1)
		}
		return t
	}

	return now.Add(DefaultDelay)
}

func (p Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// after returns now plus n minutes. Offsets past the range of time.Duration
// go through Unix seconds instead of Add.
func after(now time.Time, n int64) time.Time {
	if n <= math.MaxInt64/int64(time.Minute) {
		return now.Add(time.Duration(n) * time.Minute)
	}
	return time.Unix(now.Unix()+n*60, int64(now.Nanosecond())).In(now.Location())
}

// minutes parses a relative offset group. An empty group is zero; a value
// above MaxMinutes or one that does not fit an int64 is rejected.
func minutes(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > MaxMinutes {
		return 0, false
	}
	return n, true
}

// at returns the calendar day of d at hh:mm:00.000. Out of range values
// normalize into the following day.
func at(d time.Time, hh, mm int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, d.Location())
}

func timeOfDay(s string) (int, int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	hs, ms, _ := strings.Cut(s, ":")
	hh, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}
	mm := 0
	if ms != "" {
		if mm, err = strconv.Atoi(ms); err != nil {
			return 0, 0, false
		}
	}
	return hh, mm, true
}

// atoi returns 0 for an empty or malformed group.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
