package models

import "time"

const DateLayout = "2006-01-02"

// NormalizeDate drops the clock part and pins the date to UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Nights counts the nights in [checkIn, checkOut). Returns 0 for empty or
// inverted ranges.
func Nights(checkIn, checkOut time.Time) int {
	in, out := NormalizeDate(checkIn), NormalizeDate(checkOut)
	if !out.After(in) {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

// StayDates lists every night in [checkIn, checkOut).
func StayDates(checkIn, checkOut time.Time) []time.Time {
	n := Nights(checkIn, checkOut)
	dates := make([]time.Time, 0, n)
	start := NormalizeDate(checkIn)
	for i := 0; i < n; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}
	return dates
}
