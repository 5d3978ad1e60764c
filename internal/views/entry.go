package views

import (
	"strings"
	"time"
)

// DatedEntryLayout is the MM/dd/yyyy prefix accepted on the tomorrow screen.
const DatedEntryLayout = "01/02/2006"

// ParseDatedEntry splits "04/15/2027 do taxes" into the given day and the
// remaining text. Input without a leading date, or with nothing after it,
// is kept whole and dated one day after now.
func ParseDatedEntry(input string, now time.Time, loc *time.Location) (time.Time, string) {
	input = strings.TrimSpace(input)
	if loc == nil {
		loc = now.Location()
	}
	if head, rest, ok := strings.Cut(input, " "); ok {
		rest = strings.TrimSpace(rest)
		if day, err := time.ParseInLocation(DatedEntryLayout, head, loc); err == nil && rest != "" {
			return day, rest
		}
	}
	return now.AddDate(0, 0, 1), input
}
