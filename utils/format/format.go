package format

import (
	"fmt"
	"time"
)

const (
	dateLayout     = "Mon, Jan 2, 2006"
	timeLayout     = "3:04 PM"
	timeZoneLayout = "3:04 PM MST"
)

// FormatWhenRange renders a start/end pair as a friendly range in the given
// IANA timezone, e.g. "Tue, Jan 2, 2024, 9:00 AM–9:30 AM EST" when both ends
// fall on the same local day. An unknown timezone falls back to raw ISO
// instants.
func FormatWhenRange(start, end time.Time, timeZone string) string {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return fmt.Sprintf("%s – %s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	}

	s := start.In(loc)
	e := end.In(loc)

	sameDay := s.Year() == e.Year() && s.YearDay() == e.YearDay()
	if sameDay {
		return fmt.Sprintf("%s, %s–%s", s.Format(dateLayout), s.Format(timeLayout), e.Format(timeZoneLayout))
	}
	return fmt.Sprintf("%s %s – %s %s",
		s.Format(dateLayout), s.Format(timeZoneLayout),
		e.Format(dateLayout), e.Format(timeZoneLayout))
}
