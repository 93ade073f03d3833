package service

import (
	"context"
	"time"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/repository"
)

// Day display states, in precedence order. Posted dominates once present,
// even over today; a date shows pending only when none of its posts have
// landed anywhere.
const (
	DayStatePosted  = "posted"
	DayStatePending = "pending"
	DayStateToday   = "today"
	DayStateWeekend = "weekend"
	DayStateDefault = "default"
)

const (
	CalendarMinYear = 2000
	CalendarMaxYear = 2100

	HighlightTTL = 3 * time.Second
)

const dateKeyLayout = "2006-01-02"

type DayCell struct {
	Day         int            `json:"day"`
	Date        time.Time      `json:"date"`
	InMonth     bool           `json:"in_month"`
	State       string         `json:"state"`
	Posts       []*models.Post `json:"posts,omitempty"`
	Highlighted bool           `json:"highlighted"`
}

// MonthGrid is a fixed 7-column grid covering full weeks, padded before
// the 1st and after the last day of the month.
type MonthGrid struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Weeks [][]DayCell `json:"weeks"`
}

type dayFacts struct {
	date       time.Time
	today      time.Time
	hasPosted  bool
	hasPending bool
}

// The precedence table is the one place day coloring is decided: first
// matching rule wins, the last rule always matches.
var dayRules = []struct {
	state string
	match func(dayFacts) bool
}{
	{DayStatePosted, func(f dayFacts) bool { return f.hasPosted }},
	{DayStatePending, func(f dayFacts) bool { return f.hasPending }},
	{DayStateToday, func(f dayFacts) bool { return sameDay(f.date, f.today) }},
	{DayStateWeekend, func(f dayFacts) bool {
		wd := f.date.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	}},
	{DayStateDefault, func(dayFacts) bool { return true }},
}

// DeriveDayState runs the precedence table for one date.
func DeriveDayState(date, today time.Time, posts []*models.Post) string {
	facts := dayFacts{date: date, today: today}
	for _, post := range posts {
		switch post.Status {
		case models.PostStatusPosted:
			facts.hasPosted = true
		default:
			// pending and failed-partial both still need attention
			facts.hasPending = true
		}
	}

	for _, rule := range dayRules {
		if rule.match(facts) {
			return rule.state
		}
	}
	return DayStateDefault
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// BuildMonthGrid groups the posts by calendar date in one pass, then lays
// out ceil((offset + days) / 7) full weeks. highlight, when non-nil, marks
// that date's cell.
func BuildMonthGrid(year int, month time.Month, posts []*models.Post, today time.Time, highlight *time.Time) *MonthGrid {
	byDate := make(map[string][]*models.Post, len(posts))
	for _, post := range posts {
		key := post.ScheduledTime.Format(dateKeyLayout)
		byDate[key] = append(byDate[key], post)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	offset := int(first.Weekday())
	days := daysInMonth(year, month)
	weeks := (offset + days + 6) / 7

	grid := &MonthGrid{Year: year, Month: month}
	day := 1 - offset
	for w := 0; w < weeks; w++ {
		week := make([]DayCell, 7)
		for i := 0; i < 7; i++ {
			if day < 1 || day > days {
				week[i] = DayCell{}
			} else {
				date := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
				dayPosts := byDate[date.Format(dateKeyLayout)]
				week[i] = DayCell{
					Day:         day,
					Date:        date,
					InMonth:     true,
					State:       DeriveDayState(date, today, dayPosts),
					Posts:       dayPosts,
					Highlighted: highlight != nil && sameDay(date, *highlight),
				}
			}
			day++
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// Navigator carries a UI session's visible date, bounded stepping, and the
// transient jump-to-date highlight. None of its state is persisted.
type Navigator struct {
	current        time.Time
	highlight      *time.Time
	highlightUntil time.Time
	now            func() time.Time
}

func NewNavigator(start time.Time) *Navigator {
	return &Navigator{current: clampToBounds(start), now: time.Now}
}

func (n *Navigator) Current() time.Time { return n.current }

// StepMonth moves the visible month, clamping the day so stepping from the
// 31st into a shorter month lands on that month's last day, and refusing
// to leave the configured year range.
func (n *Navigator) StepMonth(delta int) {
	target := addMonthsClamped(n.current, delta)
	if target.Year() < CalendarMinYear || target.Year() > CalendarMaxYear {
		return
	}
	n.current = target
}

func (n *Navigator) StepYear(delta int) {
	year := n.current.Year() + delta
	if year < CalendarMinYear || year > CalendarMaxYear {
		return
	}
	day := n.current.Day()
	if max := daysInMonth(year, n.current.Month()); day > max {
		day = max
	}
	n.current = time.Date(year, n.current.Month(), day,
		0, 0, 0, 0, n.current.Location())
}

// JumpTo switches the visible month to contain the date and marks it for a
// few seconds.
func (n *Navigator) JumpTo(date time.Time) {
	date = clampToBounds(date)
	n.current = date
	d := date
	n.highlight = &d
	n.highlightUntil = n.now().Add(HighlightTTL)
}

// Highlighted returns the jump target while the mark is still live.
func (n *Navigator) Highlighted() (time.Time, bool) {
	if n.highlight == nil || !n.now().Before(n.highlightUntil) {
		n.highlight = nil
		return time.Time{}, false
	}
	return *n.highlight, true
}

func addMonthsClamped(t time.Time, delta int) time.Time {
	// time.AddDate normalizes Jan 31 + 1 month into Mar 2/3; anchor on the
	// 1st and clamp the day instead.
	anchor := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, delta, 0)
	day := t.Day()
	if max := daysInMonth(anchor.Year(), anchor.Month()); day > max {
		day = max
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, t.Location())
}

func clampToBounds(t time.Time) time.Time {
	if t.Year() < CalendarMinYear {
		return time.Date(CalendarMinYear, time.January, 1, 0, 0, 0, 0, t.Location())
	}
	if t.Year() > CalendarMaxYear {
		return time.Date(CalendarMaxYear, time.December, 31, 0, 0, 0, 0, t.Location())
	}
	return t
}

// CalendarService projects a user's full post collection into the grid for
// one visible month.
type CalendarService interface {
	MonthGrid(ctx context.Context, userID int64, year int, month time.Month) (*MonthGrid, error)
}

type calendarService struct {
	pr  repository.PostRepository
	now func() time.Time
}

func NewCalendarService(pr repository.PostRepository) CalendarService {
	return &calendarService{pr: pr, now: time.Now}
}

func (s *calendarService) MonthGrid(ctx context.Context, userID int64, year int, month time.Month) (*MonthGrid, error) {
	if year < CalendarMinYear || year > CalendarMaxYear {
		return nil, &ValidationError{Field: "year", Reason: "outside the supported range"}
	}

	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildMonthGrid(year, month, posts, s.now(), nil), nil
}
