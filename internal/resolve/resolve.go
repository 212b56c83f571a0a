// Package resolve turns weekday templates into concrete, dated snapshots.
//
// Week parity follows ISO 8601 week numbering (weeks start on Monday,
// week 1 contains the year's first Thursday) as implemented by
// time.Time.ISOWeek. A week is even when its 1-based ISO number is even.
// The parity is taken from the ISO week alone, so the last days of
// December that belong to week 1 of the next ISO year count as odd.
package resolve

import (
	"time"

	"schedsnap/internal/model"
)

// IsEvenWeek reports whether d falls in an even ISO week.
func IsEvenWeek(d model.Date) bool {
	_, week := d.ISOWeek()
	return week%2 == 0
}

// Resolve materializes the template for date. Lessons whose parity does
// not match the date's week are dropped; the rest keep their template slot
// number. The result shares no memory with day, and its group and
// snapshot uids are derived after the lessons are in place.
//
// For a fixed (day, date) the groups and uid are identical across calls;
// only ParsedDate, set from now, may differ.
func Resolve(day model.DefaultDay, date model.Date, now time.Time) model.Snapshot {
	even := IsEvenWeek(date)

	groups := make([]model.Group, 0, len(day.Groups))
	for _, dg := range day.Groups {
		groups = append(groups, resolveGroup(dg, even))
	}

	s := model.Snapshot{
		Date:       date,
		ParsedDate: now.UTC(),
		Groups:     groups,
	}
	s.UID = model.SnapshotUID(s.Groups)
	return s
}

func resolveGroup(dg model.DefaultGroup, evenWeek bool) model.Group {
	lessons := make([]model.Lesson, 0, len(dg.Lessons))
	for _, dl := range dg.Lessons {
		if !dl.Parity().Matches(evenWeek) {
			continue
		}
		lessons = append(lessons, lessonFrom(dl))
	}

	g := model.Group{Name: dg.Name, Lessons: lessons}
	g.Rehash()
	return g
}

func lessonFrom(dl model.DefaultLesson) model.Lesson {
	l := model.Lesson{
		Num:       model.Ptr(dl.Num),
		Subgroup:  dl.Subgroup,
		Name:      dl.Name,
		Teacher:   dl.Teacher,
		Classroom: dl.Classroom,
	}
	// Detach optional fields from the shared template.
	return l.Clone()
}
