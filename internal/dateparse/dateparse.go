// Package dateparse turns the free-text dates users type into chat commands
// into calendar days, and formats calendar days back for document headers.
package dateparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrUnrecognized is returned when the text matches none of the accepted formats.
var ErrUnrecognized = errors.New("unrecognized date")

type format struct {
	layout  string
	ordinal bool // day carries an English ordinal suffix ("1st", "22nd")
	hasYear bool
}

// formats are tried in order; the first strict match wins.
var formats = []format{
	{layout: "2006/Jan/2", hasYear: true},
	{layout: "Jan/2/2006", hasYear: true},
	{layout: "Jan 2", ordinal: true},
	{layout: "Jan 2"},
	{layout: "January 2", ordinal: true},
	{layout: "January 2"},
	{layout: "1/2"},
	{layout: "Jan 2, 2006", ordinal: true, hasYear: true},
}

var ordinalRe = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)\b`)

// Parser parses dates relative to a clock and a location. The zero value
// uses time.Now and time.Local.
type Parser struct {
	Now      func() time.Time
	Location *time.Location
}

// New returns a parser bound to loc.
func New(loc *time.Location) *Parser {
	return &Parser{Location: loc}
}

func (p *Parser) now() time.Time {
	if p == nil || p.Now == nil {
		return time.Now().In(p.location())
	}
	return p.Now().In(p.location())
}

func (p *Parser) location() *time.Location {
	if p == nil || p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Parse returns midnight of the calendar day described by text, or
// ErrUnrecognized. Formats without a year resolve to the current year.
func (p *Parser) Parse(text string) (time.Time, error) {
	// Strict matching: no leading, trailing or repeated whitespace.
	if text == "" || strings.Join(strings.Fields(text), " ") != text {
		return time.Time{}, ErrUnrecognized
	}

	for _, f := range formats {
		if t, ok := p.parseFormat(f, text); ok {
			return t, nil
		}
	}
	return time.Time{}, ErrUnrecognized
}

// Valid reports whether text parses.
func (p *Parser) Valid(text string) bool {
	_, err := p.Parse(text)
	return err == nil
}

func (p *Parser) parseFormat(f format, text string) (time.Time, bool) {
	candidate := text
	if f.ordinal {
		var ok bool
		candidate, ok = stripOrdinal(text)
		if !ok {
			return time.Time{}, false
		}
	}

	loc := p.location()
	t, err := time.ParseInLocation(f.layout, candidate, loc)
	if err != nil {
		return time.Time{}, false
	}
	if f.hasYear {
		return t, true
	}

	// Year-less layouts parse into year 0, which is a leap year; re-check
	// the day against the current year.
	year := p.now().Year()
	d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, loc)
	if d.Day() != t.Day() {
		return time.Time{}, false
	}
	return d, true
}

// stripOrdinal removes the single ordinal suffix in s, requiring it to be
// the correct one for the number.
func stripOrdinal(s string) (string, bool) {
	locs := ordinalRe.FindAllStringSubmatchIndex(s, -1)
	if len(locs) != 1 {
		return "", false
	}
	m := locs[0]
	digits := s[m[2]:m[3]]
	n, err := strconv.Atoi(digits)
	if err != nil || humanize.Ordinal(n) != s[m[2]:m[5]] {
		return "", false
	}
	return s[:m[3]] + s[m[5]:], true
}

// Format renders t as "Jun 15th", or "Jun 15th, 2021" when withYear is set.
func Format(t time.Time, withYear bool) string {
	s := t.Format("Jan ") + humanize.Ordinal(t.Day())
	if withYear {
		s += t.Format(", 2006")
	}
	return s
}

// FormatArg renders t in the canonical argument form, "2021/Jun/15".
func FormatArg(t time.Time) string {
	return t.Format("2006/Jan/2")
}
