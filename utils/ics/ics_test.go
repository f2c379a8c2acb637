package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildFullEvent(t *testing.T) {
	ev := Event{
		UID:         "req-123",
		Summary:     "Intro call",
		Description: "Agenda: roadmap, pricing",
		Organizer:   "exec@example.com",
		Attendees:   []string{"visitor@example.com", "aide@example.com"},
		Start:       time.Date(2030, 1, 8, 14, 0, 0, 0, time.UTC),
		End:         time.Date(2030, 1, 8, 15, 0, 0, 0, time.UTC),
		Stamp:       time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//BookKeys//Approval Broker//EN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:req-123",
		"DTSTAMP:20300101T120000Z",
		"DTSTART:20300108T140000Z",
		"DTEND:20300108T150000Z",
		"SUMMARY:Intro call",
		"ORGANIZER:mailto:exec@example.com",
		"ATTENDEE;ROLE=REQ-PARTICIPANT:mailto:visitor@example.com",
		"ATTENDEE;ROLE=REQ-PARTICIPANT:mailto:aide@example.com",
		"DESCRIPTION:Agenda: roadmap\\, pricing",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	assert.Equal(t, want, Build(ev))
}

func TestBuildOmitsEmptyOptionalLines(t *testing.T) {
	out := Build(Event{
		UID:     "req-456",
		Summary: "Quick sync",
		Start:   time.Date(2030, 1, 8, 14, 0, 0, 0, time.UTC),
		End:     time.Date(2030, 1, 8, 14, 30, 0, 0, time.UTC),
		Stamp:   time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC),
	})

	assert.NotContains(t, out, "ORGANIZER")
	assert.NotContains(t, out, "ATTENDEE")
	assert.NotContains(t, out, "DESCRIPTION")
}

func TestBuildNormalizesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	out := Build(Event{
		UID:     "req-789",
		Summary: "Local time in",
		Start:   time.Date(2030, 1, 8, 9, 0, 0, 0, loc),
		End:     time.Date(2030, 1, 8, 10, 0, 0, 0, loc),
		Stamp:   time.Date(2030, 1, 8, 9, 0, 0, 0, loc),
	})

	assert.Contains(t, out, "DTSTART:20300108T140000Z")
	assert.Contains(t, out, "DTEND:20300108T150000Z")
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, `a\;b\,c\\d\ne`, escapeText("a;b,c\\d\ne"))
	assert.Equal(t, `line1\nline2`, escapeText("line1\r\nline2"))
}
