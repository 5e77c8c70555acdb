package queryengine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeKind classifies the time scope of a query.
type TimeKind string

const (
	TimeToday        TimeKind = "today"
	TimeTomorrow     TimeKind = "tomorrow"
	TimeWeekend      TimeKind = "weekend"
	TimeWeekday      TimeKind = "weekday"
	TimeSpecificDate TimeKind = "specific_date"
	TimeFutureWindow TimeKind = "future_window"
)

// Granularity selects between hourly and daily forecast series.
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
)

// TimeReference is the resolved time scope of a query. StartDate and EndDate
// are ISO dates (YYYY-MM-DD) with StartDate <= EndDate. AssumedToday is set
// only when the text carried no time marker at all.
type TimeReference struct {
	Kind         TimeKind    `json:"type"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	Granularity  Granularity `json:"granularity"`
	AssumedToday bool        `json:"assumed_today"`
	Weekday      string      `json:"weekday,omitempty"`
}

const isoDate = "2006-01-02"

var hourlyMarkers = []string{"hourly", "hour", "next few hours", "next 24 hours"}

var isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

var dmyDatePattern = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)

var weekdayIndex = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// weekdayNames keeps a stable match order; map iteration would make weekday
// resolution nondeterministic for texts naming two weekdays.
var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ResolveTimeReference resolves the time scope of a query against now,
// in priority order: explicit date > future window > tomorrow > weekend >
// named weekday > today.
func ResolveTimeReference(text string, now time.Time) TimeReference {
	nowDate := now.UTC().Truncate(24 * time.Hour)
	lowered := strings.ToLower(text)

	granularity := GranularityDaily
	for _, marker := range hourlyMarkers {
		if strings.Contains(lowered, marker) {
			granularity = GranularityHourly
			break
		}
	}

	if explicit, ok := parseSpecificDate(lowered); ok {
		day := explicit.Format(isoDate)
		return TimeReference{
			Kind:        TimeSpecificDate,
			StartDate:   day,
			EndDate:     day,
			Granularity: granularity,
		}
	}

	if strings.Contains(lowered, "future") || strings.Contains(lowered, "upcoming") {
		start := nowDate.AddDate(0, 0, 1)
		end := start.AddDate(0, 0, 2)
		return TimeReference{
			Kind:        TimeFutureWindow,
			StartDate:   start.Format(isoDate),
			EndDate:     end.Format(isoDate),
			Granularity: GranularityDaily,
		}
	}

	if strings.Contains(lowered, "tomorrow") {
		day := nowDate.AddDate(0, 0, 1).Format(isoDate)
		return TimeReference{
			Kind:        TimeTomorrow,
			StartDate:   day,
			EndDate:     day,
			Granularity: granularity,
		}
	}

	if strings.Contains(lowered, "weekend") {
		saturday := nextWeekday(nowDate, time.Saturday)
		sunday := saturday.AddDate(0, 0, 1)
		return TimeReference{
			Kind:        TimeWeekend,
			StartDate:   saturday.Format(isoDate),
			EndDate:     sunday.Format(isoDate),
			Granularity: GranularityDaily,
		}
	}

	for _, name := range weekdayNames {
		if strings.Contains(lowered, name) {
			target := nextWeekday(nowDate, weekdayIndex[name])
			day := target.Format(isoDate)
			return TimeReference{
				Kind:        TimeWeekday,
				StartDate:   day,
				EndDate:     day,
				Granularity: granularity,
				Weekday:     name,
			}
		}
	}

	day := nowDate.Format(isoDate)
	return TimeReference{
		Kind:         TimeToday,
		StartDate:    day,
		EndDate:      day,
		Granularity:  granularity,
		AssumedToday: true,
	}
}

// nextWeekday returns the next occurrence of target strictly after base:
// asking for Saturday on a Saturday yields the following week.
func nextWeekday(base time.Time, target time.Weekday) time.Time {
	delta := (int(target) - int(base.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return base.AddDate(0, 0, delta)
}

// parseSpecificDate recognizes ISO (YYYY-MM-DD) and D/M/Y dates.
func parseSpecificDate(lowered string) (time.Time, bool) {
	if match := isoDatePattern.FindStringSubmatch(lowered); match != nil {
		parsed, err := time.Parse(isoDate, match[1])
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}

	if match := dmyDatePattern.FindStringSubmatch(lowered); match != nil {
		day, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[3])
		if month < 1 || month > 12 || day < 1 {
			return time.Time{}, false
		}
		parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (32/1 becomes 1/2); reject those.
		if parsed.Day() != day || parsed.Month() != time.Month(month) {
			return time.Time{}, false
		}
		return parsed, true
	}

	return time.Time{}, false
}
