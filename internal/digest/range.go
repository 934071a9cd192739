package digest

import (
	"fmt"
	"time"

	"github.com/notepid/pindoc/internal/dateparse"
)

// BeginningOfTime is the start used when the caller gives no start date.
var BeginningOfTime = time.Unix(0, 0)

// Range is an inclusive window of calendar days. Start may be after End;
// such a range simply contains nothing.
type Range struct {
	Start    time.Time
	End      time.Time
	Location *time.Location // day boundaries; time.Local when nil
}

func (r Range) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// day truncates t to its calendar day in the range's location.
func (r Range) day(t time.Time) time.Time {
	y, m, d := t.In(r.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls on a day within [Start, End].
func (r Range) Contains(t time.Time) bool {
	d := r.day(t)
	return !d.Before(r.day(r.Start)) && !d.After(r.day(r.End))
}

// BeforeStart reports whether t falls on a day before Start.
func (r Range) BeforeStart(t time.Time) bool {
	return r.day(t).Before(r.day(r.Start))
}

// SinceBeginning reports whether Start is the BeginningOfTime sentinel.
func (r Range) SinceBeginning() bool {
	return r.Start.Unix() == BeginningOfTime.Unix()
}

// Title renders the range for a document header, printing years only where
// they disambiguate.
func (r Range) Title(now time.Time) string {
	start := r.Start.In(r.loc())
	end := r.End.In(r.loc())
	sameYear := start.Year() == end.Year()

	if r.SinceBeginning() {
		endsCurrentYear := now.In(r.loc()).Year() == end.Year()
		return "Up until " + dateparse.Format(end, !(sameYear || endsCurrentYear))
	}
	return dateparse.Format(start, !sameYear) + " - " + dateparse.Format(end, !sameYear)
}

// ParseRange builds a range from user-typed dates. An empty start covers
// all history; an empty end means the current day.
func ParseRange(p *dateparse.Parser, startText, endText string, now time.Time) (Range, error) {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	r := Range{Start: BeginningOfTime, End: now.In(loc), Location: loc}
	if startText != "" {
		start, err := p.Parse(startText)
		if err != nil {
			return r, fmt.Errorf("start date %q: %w", startText, err)
		}
		r.Start = start
	}
	if endText != "" {
		end, err := p.Parse(endText)
		if err != nil {
			return r, fmt.Errorf("end date %q: %w", endText, err)
		}
		r.End = end
	}
	return r, nil
}
