package models

import "time"

// CampWeek is one Monday-Friday operational week of the season.
type CampWeek struct {
	Number int       `json:"number"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// SeasonCalendar holds the nine camp weeks for one season year.
type SeasonCalendar struct {
	Year  int        `json:"year"`
	Weeks []CampWeek `json:"weeks"`
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.Local)
}

// NewSeasonCalendar returns the week calendar for the given year. Known
// seasons carry their published dates; other years fall back to nine
// consecutive weeks starting June 8.
func NewSeasonCalendar(year int) SeasonCalendar {
	switch year {
	case 2026:
		return SeasonCalendar{Year: year, Weeks: []CampWeek{
			{1, day(2026, time.June, 8), day(2026, time.June, 12)},
			{2, day(2026, time.June, 15), day(2026, time.June, 19)},
			{3, day(2026, time.June, 22), day(2026, time.June, 26)},
			{4, day(2026, time.June, 29), day(2026, time.July, 3)},
			{5, day(2026, time.July, 6), day(2026, time.July, 10)},
			{6, day(2026, time.July, 13), day(2026, time.July, 17)},
			{7, day(2026, time.July, 20), day(2026, time.July, 24)},
			{8, day(2026, time.July, 27), day(2026, time.July, 31)},
			{9, day(2026, time.August, 3), day(2026, time.August, 7)},
		}}
	case 2025:
		return SeasonCalendar{Year: year, Weeks: []CampWeek{
			{1, day(2025, time.June, 9), day(2025, time.June, 13)},
			{2, day(2025, time.June, 16), day(2025, time.June, 20)},
			{3, day(2025, time.June, 23), day(2025, time.June, 27)},
			{4, day(2025, time.June, 30), day(2025, time.July, 4)},
			{5, day(2025, time.July, 7), day(2025, time.July, 11)},
			{6, day(2025, time.July, 14), day(2025, time.July, 18)},
			{7, day(2025, time.July, 21), day(2025, time.July, 25)},
			{8, day(2025, time.July, 28), day(2025, time.August, 1)},
			{9, day(2025, time.August, 4), day(2025, time.August, 8)},
		}}
	default:
		weeks := make([]CampWeek, 0, MaxWeek)
		start := day(year, time.June, 8)
		for w := MinWeek; w <= MaxWeek; w++ {
			weeks = append(weeks, CampWeek{
				Number: w,
				Start:  start,
				End:    start.AddDate(0, 0, 4),
			})
			start = start.AddDate(0, 0, 7)
		}
		return SeasonCalendar{Year: year, Weeks: weeks}
	}
}

// WeekFor returns the camp week containing the date, or 0 when the date
// falls outside the season.
func (c SeasonCalendar) WeekFor(t time.Time) int {
	d := day(t.Year(), t.Month(), t.Day())
	for _, w := range c.Weeks {
		if !d.Before(w.Start) && !d.After(w.End) {
			return w.Number
		}
	}
	return 0
}

// CurrentWeek returns the camp week for "now", or 0 outside the season.
func (c SeasonCalendar) CurrentWeek(now time.Time) int {
	return c.WeekFor(now)
}

// IsCampDay reports whether now falls on a weekday inside a camp week.
func (c SeasonCalendar) IsCampDay(now time.Time) bool {
	if c.WeekFor(now) == 0 {
		return false
	}
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// Week returns the calendar entry for week n, or false when out of range.
func (c SeasonCalendar) Week(n int) (CampWeek, bool) {
	for _, w := range c.Weeks {
		if w.Number == n {
			return w, true
		}
	}
	return CampWeek{}, false
}
