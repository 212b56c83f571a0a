// Package normalize puts a snapshot into canonical display order.
package normalize

import (
	"cmp"
	"slices"

	"schedsnap/internal/model"
)

// Sort orders groups by name (byte-wise, stable) and each group's lessons
// by slot, with unnumbered lessons after numbered ones in their original
// order.
//
// Sort does not touch any uid. Order feeds identity, so callers that need
// the identity to reflect the new order must call Rehash afterwards.
func Sort(s *model.Snapshot) {
	slices.SortStableFunc(s.Groups, func(a, b model.Group) int {
		return cmp.Compare(a.Name, b.Name)
	})
	for i := range s.Groups {
		SortLessons(s.Groups[i].Lessons)
	}
}

// SortLessons orders lessons by slot in place.
func SortLessons(lessons []model.Lesson) {
	slices.SortStableFunc(lessons, compareLessons)
}

func compareLessons(a, b model.Lesson) int {
	switch {
	case a.Num == nil && b.Num == nil:
		return 0
	case a.Num == nil:
		return 1
	case b.Num == nil:
		return -1
	default:
		return cmp.Compare(*a.Num, *b.Num)
	}
}

// Sorted reports whether Sort would leave s unchanged.
func Sorted(s model.Snapshot) bool {
	if !slices.IsSortedFunc(s.Groups, func(a, b model.Group) int { return cmp.Compare(a.Name, b.Name) }) {
		return false
	}
	for _, g := range s.Groups {
		if !slices.IsSortedFunc(g.Lessons, compareLessons) {
			return false
		}
	}
	return true
}
