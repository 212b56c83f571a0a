// Package calendar renders a snapshot as an iCalendar feed so that a dated
// schedule can be subscribed to from ordinary calendar apps.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"schedsnap/internal/config"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// Slot is a lesson's start and end as wall-clock offsets into the day.
type Slot struct {
	Start time.Duration
	End   time.Duration
}

// Bells maps a lesson number to its slot.
type Bells map[int]Slot

// BellsFrom converts the configured bell schedule.
func BellsFrom(list []config.Bell) (Bells, error) {
	out := make(Bells, len(list))
	for _, b := range list {
		start, end, err := b.Clock()
		if err != nil {
			return nil, err
		}
		out[b.Num] = Slot{Start: start, End: end}
	}
	return out, nil
}

// EventUID is the iCalendar UID of one lesson. It is stable as long as the
// snapshot content is.
func EventUID(s model.UID, group, lesson int) string {
	return fmt.Sprintf("%s-%d-%d@schedsnap", s, group, lesson)
}

// Build creates one VEVENT per lesson that has a number with a bell entry.
// Lessons without either are skipped; the count of skipped lessons is logged.
func Build(s model.Snapshot, bells Bells, loc *time.Location) *ical.Calendar {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendarFor("schedsnap")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName("Schedule " + s.Date.String())
	cal.SetXWRTimezone(loc.String())

	stamp := s.ParsedDate
	if stamp.IsZero() {
		stamp = s.Date.In(loc)
	}

	var skipped int
	for gi, g := range s.Groups {
		for li, l := range g.Lessons {
			if l.Num == nil {
				skipped++
				continue
			}
			slot, ok := bells[*l.Num]
			if !ok {
				skipped++
				continue
			}

			ev := cal.AddEvent(EventUID(s.UID, gi, li))
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(wallClock(s.Date, slot.Start, loc))
			ev.SetEndAt(wallClock(s.Date, slot.End, loc))
			ev.SetSummary(g.Name + ": " + l.Name)
			if l.Classroom != nil && *l.Classroom != "" {
				ev.SetLocation(*l.Classroom)
			}
			if d := describe(l); d != "" {
				ev.SetDescription(d)
			}
		}
	}
	if skipped > 0 {
		appLog.Debug("calendar: lessons without bell slot skipped", "uid", s.UID.String(), "skipped", skipped)
	}
	return cal
}

// wallClock places a bell offset on the date's local clock. Adding the offset
// to midnight would be off by the DST shift on transition days.
func wallClock(d model.Date, offset time.Duration, loc *time.Location) time.Time {
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	return time.Date(d.Year, d.Month, d.Day, h, m, 0, 0, loc)
}

func describe(l model.Lesson) string {
	var parts []string
	if l.Num != nil {
		parts = append(parts, "Lesson "+strconv.Itoa(*l.Num))
	}
	if l.Teacher != nil && *l.Teacher != "" {
		parts = append(parts, "Teacher: "+*l.Teacher)
	}
	if l.Subgroup != nil {
		parts = append(parts, "Subgroup "+strconv.Itoa(*l.Subgroup))
	}
	return strings.Join(parts, "\n")
}

// Encode serializes the calendar.
func Encode(cal *ical.Calendar) []byte {
	return []byte(cal.Serialize())
}

// Render is Build followed by Encode.
func Render(s model.Snapshot, bells Bells, loc *time.Location) []byte {
	return Encode(Build(s, bells, loc))
}
