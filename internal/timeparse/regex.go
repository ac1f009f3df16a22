package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Weekday names in scan order. Hebrew entries list the longer names first
// so שלישי (Tuesday) is found before its substring שני (Monday).
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"sunday", time.Sunday},
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"ראשון", time.Sunday},
	{"שלישי", time.Tuesday},
	{"רביעי", time.Wednesday},
	{"חמישי", time.Thursday},
	{"שישי", time.Friday},
	{"שני", time.Monday},
	{"שבת", time.Saturday},
}

// Hebrew hour words, longest first so "אחת עשרה" wins over "אחת".
var hebrewHours = []struct {
	word string
	hour int
}{
	{"שתים עשרה", 12},
	{"אחת עשרה", 11},
	{"עשר", 10},
	{"תשע", 9},
	{"שמונה", 8},
	{"שבע", 7},
	{"שש", 6},
	{"חמש", 5},
	{"ארבע", 4},
	{"שלוש", 3},
	{"שתיים", 2},
	{"אחת", 1},
}

// Hebrew time-of-day context words and the offset they add to the hour word.
var hebrewDayParts = []struct {
	word   string
	offset int
}{
	{"אחר הצהריים", 12},
	{"אחרי הצהריים", 12},
	{"בצהריים", 12},
	{"בערב", 12},
	{"בבוקר", 0},
}

var (
	timeWithMinutesAmPm = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)\b`)
	timeHourAmPm        = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`)
	time24Hour          = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

// parseRegex is the deterministic first stage of the cascade. It succeeds
// only when both a calendar day and an hour were resolved.
func (p *Parser) parseRegex(input, conversationContext string, now time.Time, loc *time.Location) (Result, bool) {
	meta := map[string]string{"day_source": "input"}

	day, dayOK := resolveDay(input, now)
	if !dayOK && conversationContext != "" {
		// "at 3pm" after an earlier "tomorrow": inherit the day from the
		// conversation rather than giving up.
		day, dayOK = resolveDay(conversationContext, now)
		meta["day_source"] = "context"
	}

	hour, minute, timeOK := resolveClock(input)
	if !dayOK || !timeOK {
		return Result{}, false
	}

	date := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return Result{
		Date:       &date,
		Confidence: ConfidenceHigh,
		Method:     MethodRegex,
		Metadata:   meta,
	}, true
}

// resolveDay scans text for relative day words first, then named weekdays.
// A named weekday resolves to its next occurrence, rolling a full week when
// today already is that weekday.
func resolveDay(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "today") || strings.Contains(lower, "היום") {
		return now, true
	}
	if strings.Contains(lower, "tomorrow") || strings.Contains(lower, "מחר") {
		return now.AddDate(0, 0, 1), true
	}

	for _, entry := range weekdayNames {
		if !strings.Contains(lower, entry.name) {
			continue
		}
		delta := (int(entry.day) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return now.AddDate(0, 0, delta), true
	}
	return time.Time{}, false
}

// resolveClock scans text for an hour and minute: Hebrew number words with a
// time-of-day context word first, then digital patterns.
func resolveClock(text string) (hour, minute int, ok bool) {
	if h, found := resolveHebrewClock(text); found {
		return h, 0, true
	}

	// 12-hour forms take precedence over the bare HH:MM match so that
	// "3:30pm" does not resolve to 03:30.
	if m := timeWithMinutesAmPm.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		h, valid := to24Hour(h, m[3])
		if valid && min <= 59 {
			return h, min, true
		}
	}
	if m := timeHourAmPm.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		h, valid := to24Hour(h, m[2])
		if valid {
			return h, 0, true
		}
	}
	if m := time24Hour.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h <= 23 && min <= 59 {
			return h, min, true
		}
	}
	return 0, 0, false
}

func resolveHebrewClock(text string) (int, bool) {
	offset := -1
	for _, part := range hebrewDayParts {
		if strings.Contains(text, part.word) {
			offset = part.offset
			break
		}
	}
	if offset < 0 {
		return 0, false
	}
	for _, hw := range hebrewHours {
		if strings.Contains(text, hw.word) {
			h := hw.hour + offset
			if h >= 0 && h <= 23 {
				return h, true
			}
			return 0, false
		}
	}
	return 0, false
}

func to24Hour(h int, meridiem string) (int, bool) {
	if h < 1 || h > 12 {
		return 0, false
	}
	switch strings.ToLower(meridiem) {
	case "am":
		if h == 12 {
			return 0, true
		}
		return h, true
	case "pm":
		if h == 12 {
			return 12, true
		}
		return h + 12, true
	}
	return 0, false
}
