// Package dates normalizes the inconsistent date representations found across
// repository fields and free prose into canonical YYYY-MM-DD strings.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderYear stands in when only month/day are known. Such dates are
// meaningful for recurring "this day" matching, not absolute ordering.
const placeholderYear = 1900

var (
	reCanonical = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reBareYear  = regexp.MustCompile(`^\d{4}$`)
	reMonthDay  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)
	reMDY       = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	reYMD       = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
	reYearRange = regexp.MustCompile(`^(\d{4})\s*[-–—‑]\s*\d{4}$`)
	reAnyYear   = regexp.MustCompile(`\d{4}`)
)

// Normalize converts an arbitrary date-like string into canonical YYYY-MM-DD
// form, or "" when no date can be recovered. It is total and idempotent:
// canonical input passes through unchanged.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if reCanonical.MatchString(s) {
		return s
	}
	if reBareYear.MatchString(s) {
		return s + "-01-01"
	}
	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		return format(placeholderYear, atoi(m[1]), atoi(m[2]))
	}
	if m := reMDY.FindStringSubmatch(s); m != nil {
		return format(atoi(m[3]), atoi(m[1]), atoi(m[2]))
	}
	if m := reYMD.FindStringSubmatch(s); m != nil {
		return format(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reYearRange.FindStringSubmatch(s); m != nil {
		return m[1] + "-01-01"
	}
	if y := reAnyYear.FindString(s); y != "" {
		return y + "-01-01"
	}
	return ""
}

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7,
	"aug": 8, "sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	reDayOfMonthYear = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlt + `)\s+(\d{4})\b`)
	reMonthDayYear   = regexp.MustCompile(`(?i)\b(` + monthAlt + `)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	reRangeInText    = regexp.MustCompile(`\b(\d{4})\s*[-–—‑]\s*\d{4}\b`)
	reYearInText     = regexp.MustCompile(`\b\d{4}\b`)
)

// ExtractFromText scans free prose for a date expression: "21 March 1960",
// "March 21st, 1960", a year range, or a bare year. Returns canonical form or
// "". Used for HTML-embedded timeline content, never on structured field
// values.
func ExtractFromText(text string) string {
	if m := reDayOfMonthYear.FindStringSubmatch(text); m != nil {
		return format(atoi(m[3]), monthNames[strings.ToLower(m[2])], atoi(m[1]))
	}
	if m := reMonthDayYear.FindStringSubmatch(text); m != nil {
		return format(atoi(m[3]), monthNames[strings.ToLower(m[1])], atoi(m[2]))
	}
	if m := reRangeInText.FindStringSubmatch(text); m != nil {
		return m[1] + "-01-01"
	}
	if y := reYearInText.FindString(text); y != "" {
		return y + "-01-01"
	}
	return ""
}

// Year returns the integer year of a canonical date. ok is false for empty or
// malformed input.
func Year(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// MonthDay returns the MM-DD portion of a canonical date, or "".
func MonthDay(date string) string {
	if !reCanonical.MatchString(date) {
		return ""
	}
	return date[5:]
}

func format(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
