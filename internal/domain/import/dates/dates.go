// Package dates guesses and parses the date formats found in exported bank
// statements. Detection is an ordered set of shape tests over the raw string;
// when nothing matches, or the detected layout fails to parse, Parse falls
// back to a fixed priority list of layouts.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	slashDate     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	slashDateTime = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4}) \d{1,2}:\d{2}$`)
	dotDate       = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`)
	dotDateTime   = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4} \d{1,2}:\d{2}$`)
	dotDateFull   = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}, \d{1,2}:\d{2}:\d{2}$`)
)

// Detect inspects a raw date string and returns a Go time layout for it, or
// ("", false) when no shape matches.
//
// Slash-delimited dates are ambiguous: a first token above 12 cannot be a
// month, so it reads day-first; anything else defaults to month-first. Both
// tokens <= 12 therefore silently resolve American-style, which is a
// heuristic rather than a guarantee.
func Detect(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if m := slashDate.FindStringSubmatch(s); m != nil {
		return slashLayout(m[1], m[3], false), true
	}
	if m := slashDateTime.FindStringSubmatch(s); m != nil {
		return slashLayout(m[1], m[3], true), true
	}
	if dotDate.MatchString(s) {
		return "2.1.2006", true
	}
	if dotDateTime.MatchString(s) {
		return "2.1.2006 15:04", true
	}
	if dotDateFull.MatchString(s) {
		return "2.1.2006, 15:04:05", true
	}
	return "", false
}

func slashLayout(firstToken, year string, withTime bool) string {
	yearLayout := "2006"
	if len(year) == 2 {
		yearLayout = "06"
	}

	layout := "1/2/" + yearLayout
	if first, err := strconv.Atoi(firstToken); err == nil && first > 12 {
		layout = "2/1/" + yearLayout
	}
	if withTime {
		layout += " 15:04"
	}
	return layout
}

// fallbackLayouts is the fixed priority order tried when detection fails or
// the detected layout does not parse.
var fallbackLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"1/2/2006",
	"1/2/06",
	"2.1.2006",
	"2.1.2006 15:04",
	"2.1.2006, 15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Parse resolves a raw date string to a point in time via the
// detect-then-fallback chain. The returned error means no known layout
// applies; callers treat that as a droppable row, not a fatal condition.
func Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)

	if layout, ok := Detect(s); ok {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
