package processor

import (
	"fmt"
	"strings"
	"time"
)

// normalizedLayout is the shape of a site timestamp once it has been
// rewritten into something the time package understands.
const normalizedLayout = "2006-01-02 3:04 PM"

var meridiemReplacer = strings.NewReplacer("a", " AM", "p", " PM")

// NormalizeTimestamp parses the site's compact "7/9/25 10:45a ET" format
// into a comparable time. The two-digit year is expanded into the 2000s,
// which holds until 2099 - a bounded limitation inherited from the source
// format. Any input that cannot be understood, including the empty string,
// maps to the zero time so that sorting on the result is total and
// failure-free; unknown timestamps sort as oldest.
func NormalizeTimestamp(raw string) time.Time {
	s := strings.TrimSpace(strings.ReplaceAll(raw, " ET", ""))
	if s == "" {
		return time.Time{}
	}

	datePart, timePart, ok := strings.Cut(s, " ")
	if !ok {
		return time.Time{}
	}
	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return time.Time{}
	}
	month, day, year := zeroPad(parts[0]), zeroPad(parts[1]), "20"+parts[2]
	clock := meridiemReplacer.Replace(timePart)

	t, err := time.Parse(normalizedLayout, fmt.Sprintf("%s-%s-%s %s", year, month, day, clock))
	if err != nil {
		return time.Time{}
	}
	return t
}

func zeroPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
