package model

import "time"

// UID is a content-derived identity tag. Two values with equal content
// always share a UID; it is never generated randomly.
type UID string

func (u UID) String() string { return string(u) }

// Lesson is one slot of a concrete, dated schedule.
type Lesson struct {
	// Num is the slot within the day (1..9 while editing). Nil means the
	// lesson is not placed yet.
	Num *int `json:"num"`
	// Subgroup is 1 or 2; nil means the whole group attends.
	Subgroup  *int    `json:"subgroup"`
	Name      string  `json:"name"`
	Teacher   *string `json:"teacher"`
	Classroom *string `json:"classroom"`
}

// Group is a class/group label with its lessons in schedule order.
type Group struct {
	Name    string   `json:"name"`
	Lessons []Lesson `json:"lessons"`
	// UID is derived from Name and Lessons; see GroupUID.
	UID UID `json:"uid"`
}

// Snapshot is a concrete schedule for one calendar date.
type Snapshot struct {
	UID  UID  `json:"uid"`
	Date Date `json:"date"`
	// ParsedDate records when the snapshot was materialized. It does not
	// take part in identity.
	ParsedDate time.Time `json:"parsed_date"`
	Groups     []Group   `json:"groups"`
}

// DefaultLesson is a recurring lesson of a weekday template.
type DefaultLesson struct {
	Num       int     `json:"num"`
	Subgroup  *int    `json:"subgroup"`
	Name      string  `json:"name"`
	Teacher   *string `json:"teacher"`
	Classroom *string `json:"classroom"`
	// IsEven: true for even ISO weeks only, false for odd weeks only,
	// nil for every week.
	IsEven *bool `json:"is_even"`
}

type DefaultGroup struct {
	Name    string          `json:"name"`
	Lessons []DefaultLesson `json:"lessons"`
}

// DefaultDay is the read-only template for one weekday (Mon..Sat).
type DefaultDay struct {
	Day    Weekday        `json:"day"`
	Groups []DefaultGroup `json:"groups"`
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a lesson that shares no memory with l.
func (l Lesson) Clone() Lesson {
	return Lesson{
		Num:       clonePtr(l.Num),
		Subgroup:  clonePtr(l.Subgroup),
		Name:      l.Name,
		Teacher:   clonePtr(l.Teacher),
		Classroom: clonePtr(l.Classroom),
	}
}

// Clone deep-copies the group including its lessons.
func (g Group) Clone() Group {
	out := Group{Name: g.Name, UID: g.UID}
	if g.Lessons == nil {
		return out
	}
	out.Lessons = make([]Lesson, len(g.Lessons))
	for i, l := range g.Lessons {
		out.Lessons[i] = l.Clone()
	}
	return out
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Groups == nil {
		return out
	}
	out.Groups = make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		out.Groups[i] = g.Clone()
	}
	return out
}

// Parity reports the week-parity condition of a template lesson.
func (l DefaultLesson) Parity() Parity {
	return ParityOf(l.IsEven)
}

// GroupIndex returns the position of the group named name.
func (d DefaultDay) GroupIndex(name string) (int, bool) {
	for i, g := range d.Groups {
		if g.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Clone deep-copies a template lesson.
func (l DefaultLesson) Clone() DefaultLesson {
	return DefaultLesson{
		Num:       l.Num,
		Subgroup:  clonePtr(l.Subgroup),
		Name:      l.Name,
		Teacher:   clonePtr(l.Teacher),
		Classroom: clonePtr(l.Classroom),
		IsEven:    clonePtr(l.IsEven),
	}
}

// Clone deep-copies the template so it can be edited without touching the
// loaded set.
func (d DefaultDay) Clone() DefaultDay {
	out := DefaultDay{Day: d.Day, Groups: make([]DefaultGroup, len(d.Groups))}
	for i, g := range d.Groups {
		lessons := make([]DefaultLesson, len(g.Lessons))
		for li, l := range g.Lessons {
			lessons[li] = l.Clone()
		}
		out.Groups[i] = DefaultGroup{Name: g.Name, Lessons: lessons}
	}
	return out
}
