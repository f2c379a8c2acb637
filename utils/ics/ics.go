// Package ics builds RFC 5545 calendar payloads for mail attachments.
// Output must stay bit-exact (CRLF line endings, UTC basic format) for
// interoperability with calendar clients.
package ics

import (
	"strings"
	"time"
)

const utcBasicLayout = "20060102T150405Z"

// Event is the minimal event shape we attach to approval mail.
type Event struct {
	UID         string
	Summary     string
	Description string
	Organizer   string
	Attendees   []string
	Start       time.Time
	End         time.Time
	Stamp       time.Time
}

// escapeText escapes TEXT values per RFC 5545 section 3.3.11.
func escapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

// Build renders the event as a single-VEVENT VCALENDAR request.
func Build(ev Event) string {
	var b strings.Builder
	write := func(line string) {
		b.WriteString(line)
		b.WriteString("\r\n")
	}

	write("BEGIN:VCALENDAR")
	write("VERSION:2.0")
	write("PRODID:-//BookKeys//Approval Broker//EN")
	write("METHOD:REQUEST")
	write("BEGIN:VEVENT")
	write("UID:" + escapeText(ev.UID))
	write("DTSTAMP:" + ev.Stamp.UTC().Format(utcBasicLayout))
	write("DTSTART:" + ev.Start.UTC().Format(utcBasicLayout))
	write("DTEND:" + ev.End.UTC().Format(utcBasicLayout))
	write("SUMMARY:" + escapeText(ev.Summary))
	if ev.Organizer != "" {
		write("ORGANIZER:mailto:" + ev.Organizer)
	}
	for _, a := range ev.Attendees {
		write("ATTENDEE;ROLE=REQ-PARTICIPANT:mailto:" + a)
	}
	if ev.Description != "" {
		write("DESCRIPTION:" + escapeText(ev.Description))
	}
	write("END:VEVENT")
	write("END:VCALENDAR")
	return b.String()
}
