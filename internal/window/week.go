package window

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned for windows the archive layout cannot serve.
var ErrInvalidArgument = errors.New("invalid window argument")

// Weeks are numbered from 1 and lag ISO weeks by one: week 1 is ISO week 2.
// Weeks 0 and 51+ can cross a year boundary and are not supported.
const (
	MinWeek = 1
	MaxWeek = 50
)

// ValidateWeek rejects week numbers outside MinWeek..MaxWeek.
func ValidateWeek(week int) error {
	if week < MinWeek || week > MaxWeek {
		return fmt.Errorf("%w: week %d outside %d..%d (year-crossing weeks are unsupported)",
			ErrInvalidArgument, week, MinWeek, MaxWeek)
	}
	return nil
}

// isoWeekMonday returns 00:00 UTC on the Monday of ISO week isoWeek.
func isoWeekMonday(year, isoWeek int) time.Time {
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // days since Monday
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, 7*(isoWeek-1))
}

// WeekStart returns 00:00 UTC on the Monday that opens week of year.
func WeekStart(year, week int) time.Time {
	return isoWeekMonday(year, week+1)
}

// WeekOf returns the week number and ISO year containing a UTC timestamp.
// Timestamps in ISO week 1 map to week 0.
func WeekOf(ts int64) (year, week int) {
	year, isoWeek := time.Unix(ts, 0).UTC().ISOWeek()
	return year, isoWeek - 1
}

// Span is a half-open UTC interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether a UTC timestamp falls inside the span.
func (s Span) Contains(ts int64) bool {
	return ts >= s.Start.Unix() && ts < s.End.Unix()
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start.Format(time.DateOnly), s.End.Format(time.DateOnly))
}

// WeekSpan returns the seven days of week in year.
func WeekSpan(year, week int) (Span, error) {
	if err := ValidateWeek(week); err != nil {
		return Span{}, err
	}
	start := WeekStart(year, week)
	return Span{Start: start, End: start.AddDate(0, 0, 7)}, nil
}

// MonthSpan returns one calendar month.
func MonthSpan(year, month int) (Span, error) {
	if month < 1 || month > 12 {
		return Span{}, fmt.Errorf("%w: month %d", ErrInvalidArgument, month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Span{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// YearSpan returns one calendar year.
func YearSpan(year int) Span {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Span{Start: start, End: start.AddDate(1, 0, 0)}
}

// weekMonths lists the calendar months whose partitions can hold records of
// the week: the month of its Monday and the one after, within the same year.
func weekMonths(span Span) []int {
	first := int(span.Start.Month())
	if first == 12 {
		return []int{first}
	}
	return []int{first, first + 1}
}
