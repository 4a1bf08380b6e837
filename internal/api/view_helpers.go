package api

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatPlaytime renders accumulated seconds for human display.
func FormatPlaytime(seconds int64) string {
	switch {
	case seconds <= 0:
		return "0m"
	case seconds < 60:
		return "<1m"
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh %02dm", seconds/3600, (seconds%3600)/60)
	}
}

// ParseTime parses an API timestamp, tolerating the precision variants
// producers emit. Returns the zero time for empty or malformed input.
func ParseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{dateTimeFormat, time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// TitleFromSlug turns a machine identifier like "hollow-knight" into a
// display title. Returns empty for empty input so callers can fall back.
func TitleFromSlug(slug string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range slug {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}
