package usecase

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tuanyuan2008/amazon-shopping-assistant/internal/domain"
)

// Compiled patterns for relative date phrases
var (
	inDaysPattern  = regexp.MustCompile(`^in\s+(\d+)\s+days?$`)
	inWeeksPattern = regexp.MustCompile(`^in\s+(\d+)\s+weeks?$`)
)

// DateResolverConfig holds configuration for the date resolver
type DateResolverConfig struct {
	// EnableLLMFallback turns on the LLM interpretation step for phrases the
	// built-in strategies cannot handle. Requires an interpreter.
	EnableLLMFallback  bool
	EnableDebugLogging bool
}

// DateResolver normalizes heterogeneous date-like text (holiday names,
// absolute dates, relative phrases) into calendar dates. Three strategies
// run in order, first successful resolution wins:
//
//  1. substring match against the current year's US federal holiday names
//  2. direct parsing of absolute layouts and relative phrases, preferring
//     future dates for yearless input
//  3. optional LLM interpretation, only when explicitly enabled
//
// Unresolvable input yields nil, never an error.
type DateResolver struct {
	interpreter        domain.DateInterpreter
	enableLLMFallback  bool
	enableDebugLogging bool
	now                func() time.Time
}

// NewDateResolver creates a date resolver. The interpreter may be nil, in
// which case the LLM fallback is skipped regardless of configuration.
func NewDateResolver(interpreter domain.DateInterpreter, config DateResolverConfig) *DateResolver {
	return &DateResolver{
		interpreter:        interpreter,
		enableLLMFallback:  config.EnableLLMFallback && interpreter != nil,
		enableDebugLogging: config.EnableDebugLogging,
		now:                time.Now,
	}
}

// Resolve turns a date-like string into a calendar date (normalized to
// midnight). It returns nil when the input is empty or cannot be resolved.
func (r *DateResolver) Resolve(ctx context.Context, input string) *time.Time {
	phrase := strings.ToLower(strings.TrimSpace(input))
	if phrase == "" {
		return nil
	}

	today := atMidnight(r.now())
	year := today.Year()

	// 1. US holiday names ("christmas", "labor day", ...). An exact name match
	// wins before substring matching so "independence day" is July 4th, not
	// Juneteenth National Independence Day.
	holidays := federalHolidays(year, today.Location())
	for pass := 0; pass < 2; pass++ {
		for _, h := range holidays {
			name := strings.ToLower(h.name)
			if (pass == 0 && name == phrase) || (pass == 1 && strings.Contains(name, phrase)) {
				d := h.date
				if r.enableDebugLogging {
					log.Printf("[DATES] %q resolved as holiday %s (%s)", input, h.name, d.Format("2006-01-02"))
				}
				return &d
			}
		}
	}

	// 2. Direct parsing: relative phrases, then absolute layouts
	if d := r.parseRelative(phrase, today); d != nil {
		return d
	}
	if d := r.parseAbsolute(phrase, today); d != nil {
		return d
	}

	// 3. LLM fallback, only when enabled
	if r.enableLLMFallback {
		return r.interpretWithLLM(ctx, phrase, year, today.Location())
	}
	return nil
}

// parseRelative handles phrases expressed relative to today.
func (r *DateResolver) parseRelative(phrase string, today time.Time) *time.Time {
	switch phrase {
	case "today":
		return &today
	case "tomorrow":
		d := today.AddDate(0, 0, 1)
		return &d
	case "day after tomorrow":
		d := today.AddDate(0, 0, 2)
		return &d
	case "next week":
		d := today.AddDate(0, 0, 7)
		return &d
	case "next month":
		d := today.AddDate(0, 1, 0)
		return &d
	case "this weekend":
		d := nextWeekday(today, time.Saturday)
		return &d
	}

	if m := inDaysPattern.FindStringSubmatch(phrase); m != nil {
		n, _ := strconv.Atoi(m[1])
		d := today.AddDate(0, 0, n)
		return &d
	}
	if m := inWeeksPattern.FindStringSubmatch(phrase); m != nil {
		n, _ := strconv.Atoi(m[1])
		d := today.AddDate(0, 0, 7*n)
		return &d
	}

	// Weekday names resolve to the next future occurrence ("friday",
	// "next friday", "by friday"). Prefixes stack ("by next friday"), so
	// strip until none match.
	name := phrase
	for stripped := true; stripped; {
		stripped = false
		for _, prefix := range []string{"next ", "this ", "by "} {
			if trimmed := strings.TrimPrefix(name, prefix); trimmed != name {
				name = trimmed
				stripped = true
			}
		}
	}
	if wd, ok := weekdayNames[name]; ok {
		d := nextWeekday(today, wd)
		return &d
	}
	return nil
}

// absoluteLayouts are tried in order. Layouts without a year get the current
// year and roll forward when the date has already passed.
var absoluteLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"2006-01-02", true},
	{"January 2, 2006", true},
	{"Jan 2, 2006", true},
	{"January 2 2006", true},
	{"2 January 2006", true},
	{"01/02/2006", true},
	{"1/2/2006", true},
	{"January 2", false},
	{"Jan 2", false},
	{"01/02", false},
	{"1/2", false},
}

// ordinalPattern strips day ordinals so "december 25th" parses as a plain day
var ordinalPattern = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)

func (r *DateResolver) parseAbsolute(phrase string, today time.Time) *time.Time {
	phrase = ordinalPattern.ReplaceAllString(phrase, "$1")
	// time.Parse month names are case-sensitive; normalize to title case
	titled := titleCaseWords(phrase)

	for _, l := range absoluteLayouts {
		parsed, err := time.ParseInLocation(l.layout, titled, today.Location())
		if err != nil {
			continue
		}
		d := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, today.Location())
		if !l.hasYear {
			d = time.Date(today.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, today.Location())
			// Prefer future dates: a yearless date that already passed means
			// next year
			if d.Before(today) {
				d = d.AddDate(1, 0, 0)
			}
		}
		return &d
	}
	return nil
}

// interpretWithLLM asks the date interpreter for a strict ISO date. Errors
// and non-date answers degrade to "no date".
func (r *DateResolver) interpretWithLLM(ctx context.Context, phrase string, year int, loc *time.Location) *time.Time {
	result, err := r.interpreter.InterpretDate(ctx, phrase, year)
	if err != nil {
		log.Printf("[DATES] LLM interpretation of %q failed: %v", phrase, err)
		return nil
	}
	result = strings.ToLower(strings.TrimSpace(result))
	if result == "none" {
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", result, loc)
	if err != nil {
		log.Printf("[DATES] LLM returned non-ISO date %q for %q", result, phrase)
		return nil
	}
	d := atMidnight(parsed)
	return &d
}

// holiday pairs a US federal holiday name with its observed calendar date.
type holiday struct {
	name string
	date time.Time
}

// federalHolidays returns the US federal holidays for the given year.
func federalHolidays(year int, loc *time.Location) []holiday {
	fixed := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, loc)
	}
	return []holiday{
		{"New Year's Day", fixed(time.January, 1)},
		{"Martin Luther King Jr. Day", nthWeekday(year, time.January, time.Monday, 3, loc)},
		{"Washington's Birthday", nthWeekday(year, time.February, time.Monday, 3, loc)},
		{"Memorial Day", lastWeekday(year, time.May, time.Monday, loc)},
		{"Juneteenth National Independence Day", fixed(time.June, 19)},
		{"Independence Day", fixed(time.July, 4)},
		{"Labor Day", nthWeekday(year, time.September, time.Monday, 1, loc)},
		{"Columbus Day", nthWeekday(year, time.October, time.Monday, 2, loc)},
		{"Veterans Day", fixed(time.November, 11)},
		{"Thanksgiving", nthWeekday(year, time.November, time.Thursday, 4, loc)},
		{"Christmas Day", fixed(time.December, 25)},
	}
}

// nthWeekday returns the nth occurrence of a weekday in a month (n is 1-based).
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int, loc *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

// lastWeekday returns the last occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday, loc *time.Location) time.Time {
	// Last day of the month, then walk back
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// nextWeekday returns the next occurrence of the weekday strictly after today.
func nextWeekday(today time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDate(0, 0, offset)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// atMidnight truncates a time to its calendar date.
func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// titleCaseWords uppercases the first letter of each word so month names
// match time.Parse layouts ("december 25" -> "December 25").
func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// daysBetween returns the calendar days from a to b. Both dates are
// re-anchored in UTC so a DST transition inside the window (a 23- or 25-hour
// day) cannot skew the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
