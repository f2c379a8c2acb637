package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BlockMinutes is the granularity of a single availability-view character.
const BlockMinutes = 15

// Slot is one bookable window, both bounds UTC instants.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ClampDuration bounds a requested meeting length to 15..240 minutes,
// defaulting to 30.
func ClampDuration(d int) int {
	if d == 0 {
		d = 30
	}
	if d < 15 {
		return 15
	}
	if d > 240 {
		return 240
	}
	return d
}

// Intersect combines availability views position-wise: a block is free ('0')
// in the result only if it is free in every input view. Any other character
// (tentative, busy, out-of-office) blocks the slot. Views of differing
// lengths are compared up to the shortest; callers must supply equal-origin,
// equal-length views.
func Intersect(views []string) string {
	if len(views) == 0 {
		return ""
	}
	acc := views[0]
	for i := 1; i < len(views); i++ {
		b := views[i]
		n := len(acc)
		if len(b) < n {
			n = len(b)
		}
		var out strings.Builder
		out.Grow(n)
		for j := 0; j < n; j++ {
			if acc[j] != '0' || b[j] != '0' {
				out.WriteByte('1')
			} else {
				out.WriteByte('0')
			}
		}
		acc = out.String()
	}
	return acc
}

// DeriveSlots scans candidate starts from windowStart in stepMinutes
// increments and emits every candidate whose full duration spans only free
// blocks. Overlapping slots are intentional; the caller picks one. Candidates
// whose start is not strictly after now are dropped.
func DeriveSlots(combined string, windowStart time.Time, stepMinutes, durationMinutes int, now time.Time) []Slot {
	free := make([]bool, len(combined))
	for i := 0; i < len(combined); i++ {
		free[i] = combined[i] == '0'
	}

	neededBlocks := (durationMinutes + BlockMinutes - 1) / BlockMinutes
	totalMinutes := len(free) * BlockMinutes

	// A candidate must end strictly inside the window; a slot running right
	// up to the window edge is not offered.
	out := []Slot{}
	for minute := 0; minute+durationMinutes < totalMinutes; minute += stepMinutes {
		start := windowStart.Add(time.Duration(minute) * time.Minute)
		if !start.After(now) {
			continue
		}

		startBlock := minute / BlockMinutes
		if startBlock+neededBlocks > len(free) {
			break
		}
		ok := true
		for k := 0; k < neededBlocks; k++ {
			if !free[startBlock+k] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Slot{
				Start: start,
				End:   start.Add(time.Duration(durationMinutes) * time.Minute),
			})
		}
	}
	return out
}

// parseClock parses a "HH:MM" wall-clock string.
func parseClock(s string) (hour, min int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hour, min, nil
}

// BusinessWindow maps a calendar date plus a local business-hours range into
// absolute UTC instants. Business hours are wall-clock times in loc, so the
// conversion goes through the timezone database and is correct across DST
// transitions.
func BusinessWindow(date, startClock, endClock string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	sh, sm, err := parseClock(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := parseClock(endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	return start.UTC(), end.UTC(), nil
}

// BusinessWindowSearch is a fallback local-to-UTC conversion that binary
// searches the UTC timeline for the instant whose wall clock in loc matches
// the requested time, instead of constructing the instant directly. Kept as a
// cross-check for BusinessWindow; the two must agree to within one minute.
func BusinessWindowSearch(date, startClock, endClock string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	sh, sm, err := parseClock(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	eh, em, err := parseClock(endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := searchLocalInstant(day, sh, sm, loc)
	end := searchLocalInstant(day, eh, em, loc)
	return start, end, nil
}

func searchLocalInstant(day time.Time, hour, min int, loc *time.Location) time.Time {
	base := time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.UTC)
	lo := base.Add(-48 * time.Hour).Unix()
	hi := base.Add(48 * time.Hour).Unix()

	target := [5]int{day.Year(), int(day.Month()), day.Day(), hour, min}
	for i := 0; i < 40 && lo <= hi; i++ {
		mid := (lo + hi) / 2
		local := time.Unix(mid, 0).In(loc)
		got := [5]int{local.Year(), int(local.Month()), local.Day(), local.Hour(), local.Minute()}

		cmp := 0
		for j := 0; j < 5; j++ {
			if got[j] != target[j] {
				if got[j] < target[j] {
					cmp = -1
				} else {
					cmp = 1
				}
				break
			}
		}
		switch cmp {
		case -1:
			lo = mid + 1
		case 1:
			hi = mid - 1
		default:
			// Round down to the whole minute the match landed in.
			return time.Unix(mid-mid%60, 0).UTC()
		}
	}
	return base
}

// IsWeekend reports whether the date falls on a Saturday or Sunday in loc.
// Noon avoids day-boundary ambiguity around DST shifts.
func IsWeekend(date string, loc *time.Location) bool {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return false
	}
	noon := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	wd := noon.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
