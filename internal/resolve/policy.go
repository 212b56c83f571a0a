package resolve

import (
	"fmt"
	"strings"
	"time"

	"schedsnap/internal/model"
)

// Intent is the "which day" choice offered by the front-end.
type Intent int

const (
	Today Intent = iota
	Tomorrow
)

func (i Intent) String() string {
	if i == Tomorrow {
		return "tomorrow"
	}
	return "today"
}

func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return Today, nil
	case "tomorrow", "next":
		return Tomorrow, nil
	default:
		return Today, fmt.Errorf("unknown day intent %q", s)
	}
}

// TargetDate maps an intent to the calendar date whose template applies.
// now should already be in the display timezone. Sunday has no template,
// so it rolls over to the following Monday.
func TargetDate(now time.Time, intent Intent) model.Date {
	d := model.DateOf(now)
	if intent == Tomorrow {
		d = d.AddDays(1)
	}
	if d.Weekday() == time.Sunday {
		d = d.AddDays(1)
	}
	return d
}
