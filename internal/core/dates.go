package core

import "time"

// DayLayout is the calendar-day key used by timelines.
const DayLayout = "2006-01-02"

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return Invalid("Start date must be before end date.")
	}
	return nil
}

// ValidateDays compares calendar days in loc only, so a start later in the
// same day as End is accepted.
func (r DateRange) ValidateDays(loc *time.Location) error {
	if StartOfDay(r.Start, loc).After(StartOfDay(r.End, loc)) {
		return Invalid("Start date must be before end date.")
	}
	return nil
}

// Window returns the half-open interval [startOfDay(Start), startOfDay(End)+1d).
func (r DateRange) Window(loc *time.Location) (from, before time.Time) {
	return StartOfDay(r.Start, loc), NextDay(StartOfDay(r.End, loc))
}

// Days lists the start of every calendar day from Start to End, inclusive.
func (r DateRange) Days(loc *time.Location) []time.Time {
	first := StartOfDay(r.Start, loc)
	last := StartOfDay(r.End, loc)
	var days []time.Time
	for d := first; !d.After(last); d = NextDay(d) {
		days = append(days, d)
	}
	return days
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// NextDay returns midnight of the following calendar day. It steps by date,
// not by 24h, so DST transitions keep day boundaries at midnight.
func NextDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, day.Location())
}

// DayWindow returns [startOfDay(t), startOfDay(t)+1d).
func DayWindow(t time.Time, loc *time.Location) (from, before time.Time) {
	from = StartOfDay(t, loc)
	return from, NextDay(from)
}

func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay accepts either a calendar day or an RFC 3339 instant.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, Invalid("Invalid date: " + s)
	}
	return t, nil
}
