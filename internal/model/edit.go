package model

import "time"

const (
	// MaxLessonNum is the highest slot accepted while editing a snapshot.
	MaxLessonNum = 9
	// DefaultGroupName labels a freshly created group.
	DefaultGroupName = "Группа?"
)

// lastDigit returns the numeric value of the final character of s when it
// is an ASCII digit. Text fields echo the whole input, so the newest
// keystroke is the one that counts.
func lastDigit(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	c := s[len(s)-1]
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}

// NewEmptySnapshot returns a snapshot with no groups for the given date.
func NewEmptySnapshot(date Date, now time.Time) Snapshot {
	s := Snapshot{Date: date, ParsedDate: now.UTC(), Groups: []Group{}}
	s.Rehash()
	return s
}

// NewGroup returns a group with the default name and a fresh uid.
func NewGroup() Group {
	g := Group{Name: DefaultGroupName, Lessons: []Lesson{}}
	g.Rehash()
	return g
}

// NewLessonAfter returns a blank lesson that continues numbering from prev.
// A prev slot at MaxLessonNum or without a number yields an unnumbered lesson.
func NewLessonAfter(prev *Lesson) Lesson {
	var l Lesson
	if prev != nil && prev.Num != nil && *prev.Num < MaxLessonNum {
		l.Num = Ptr(*prev.Num + 1)
	}
	return l
}

// SetNumText applies textual slot input. Anything but a trailing digit in
// 1..9 clears the slot.
func (l *Lesson) SetNumText(s string) {
	if n, ok := lastDigit(s); ok && n > 0 {
		l.Num = Ptr(n)
		return
	}
	l.Num = nil
}

// SetSubgroupText applies textual subgroup input; only 1 and 2 survive.
func (l *Lesson) SetSubgroupText(s string) {
	if n, ok := lastDigit(s); ok && n > 0 && n < 3 {
		l.Subgroup = Ptr(n)
		return
	}
	l.Subgroup = nil
}

func (l *Lesson) SetName(s string)      { l.Name = s }
func (l *Lesson) SetTeacher(s string)   { l.Teacher = Ptr(s) }
func (l *Lesson) SetClassroom(s string) { l.Classroom = Ptr(s) }

// Reset clears every field.
func (l *Lesson) Reset() { *l = Lesson{} }

// Normalize drops out-of-range numbers instead of rejecting the lesson.
func (l *Lesson) Normalize() {
	if l.Num != nil && (*l.Num < 1 || *l.Num > MaxLessonNum) {
		l.Num = nil
	}
	if l.Subgroup != nil && *l.Subgroup != 1 && *l.Subgroup != 2 {
		l.Subgroup = nil
	}
}

// SetName renames the group.
func (g *Group) SetName(name string) {
	g.Name = name
	g.Rehash()
}

// AddLesson appends a lesson numbered after the current last one.
func (g *Group) AddLesson() {
	var prev *Lesson
	if n := len(g.Lessons); n > 0 {
		prev = &g.Lessons[n-1]
	}
	g.Lessons = append(g.Lessons, NewLessonAfter(prev))
	g.Rehash()
}

// RemoveLesson deletes the lesson at idx. Out-of-range indexes are ignored.
func (g *Group) RemoveLesson(idx int) bool {
	if idx < 0 || idx >= len(g.Lessons) {
		return false
	}
	g.Lessons = append(g.Lessons[:idx], g.Lessons[idx+1:]...)
	g.Rehash()
	return true
}

// UpdateLesson applies fn to the lesson at idx and refreshes the uid.
func (g *Group) UpdateLesson(idx int, fn func(*Lesson)) bool {
	if idx < 0 || idx >= len(g.Lessons) {
		return false
	}
	fn(&g.Lessons[idx])
	g.Rehash()
	return true
}

// NewDefaultLessonAfter continues template numbering from prev. Template
// slots are not capped, so a prev above MaxLessonNum is repeated as is.
func NewDefaultLessonAfter(prev *DefaultLesson) DefaultLesson {
	switch {
	case prev == nil:
		return DefaultLesson{Num: 1}
	case prev.Num > MaxLessonNum:
		return DefaultLesson{Num: prev.Num}
	default:
		return DefaultLesson{Num: prev.Num + 1}
	}
}

// SetNumText keeps the current slot when the input is not a positive digit;
// a template lesson always has a slot.
func (l *DefaultLesson) SetNumText(s string) {
	if n, ok := lastDigit(s); ok && n > 0 {
		l.Num = n
	}
}

func (l *DefaultLesson) SetSubgroupText(s string) {
	if n, ok := lastDigit(s); ok && n > 0 && n < 3 {
		l.Subgroup = Ptr(n)
		return
	}
	l.Subgroup = nil
}

func (l *DefaultLesson) SetParity(p Parity) {
	l.IsEven = p.IsEven()
}
