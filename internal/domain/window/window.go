package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidSeason = errors.New("season must be greater than zero")
	ErrInvalidRange  = errors.New("start_date must not be after end_date")
)

// Window scopes one ingestion run: a season and an inclusive calendar date range.
type Window struct {
	Season    int
	StartDate time.Time
	EndDate   time.Time
}

func New(season int, startDate, endDate string) (Window, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return Window{}, fmt.Errorf("parse start_date: %w", err)
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return Window{}, fmt.Errorf("parse end_date: %w", err)
	}
	w := Window{Season: season, StartDate: start, EndDate: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
}

func (w Window) Validate() error {
	if w.Season <= 0 {
		return ErrInvalidSeason
	}
	if w.StartDate.After(w.EndDate) {
		return ErrInvalidRange
	}
	return nil
}

func (w Window) Start() string { return w.StartDate.Format(DateLayout) }
func (w Window) End() string   { return w.EndDate.Format(DateLayout) }

// Range renders the window as "{start}_to_{end}".
func (w Window) Range() string {
	return w.Start() + "_to_" + w.End()
}

func (w Window) String() string {
	return fmt.Sprintf("season=%d range=%s", w.Season, w.Range())
}

// periodAnchor is a Monday; periods of 7 days therefore run Monday through Sunday.
var periodAnchor = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)

// LastCompletePeriod returns the most recent fully elapsed period of `days` calendar days
// before the day of `now`. Periods tile the calendar from a fixed anchor, so any two
// calls either return the same window or disjoint ones.
func LastCompletePeriod(season int, now time.Time, days int) Window {
	if days < 1 {
		days = 1
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	elapsed := int(today.Sub(periodAnchor).Hours() / 24)
	offset := elapsed % days
	if offset < 0 {
		offset += days
	}
	currentStart := today.AddDate(0, 0, -offset)
	return Window{
		Season:    season,
		StartDate: currentStart.AddDate(0, 0, -days),
		EndDate:   currentStart.AddDate(0, 0, -1),
	}
}
