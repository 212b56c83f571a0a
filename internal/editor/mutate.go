package editor

import (
	"fmt"
	"strings"

	"schedsnap/internal/model"
)

// Op names a field-level edit.
type Op string

const (
	OpAddGroup     Op = "add_group"
	OpRemoveGroup  Op = "remove_group"
	OpGroupName    Op = "group_name"
	OpAddLesson    Op = "add_lesson"
	OpRemoveLesson Op = "remove_lesson"
	OpResetLesson  Op = "reset_lesson"
	OpNum          Op = "num"
	OpSubgroup     Op = "subgroup"
	OpName         Op = "name"
	OpTeacher      Op = "teacher"
	OpClassroom    Op = "classroom"

	// OpParity only applies to template lessons.
	OpParity Op = "parity"
)

// Edit is one field-level change as sent by a front-end. Group and Lesson
// are indexes into the edited value; ops that target a group or lesson
// fail with ErrMissingIndex when the index is absent. Value is the raw
// text input.
type Edit struct {
	Op     Op     `json:"op"`
	Group  *int   `json:"group"`
	Lesson *int   `json:"lesson"`
	Value  string `json:"value"`
}

func (e Edit) op() Op { return Op(strings.ToLower(string(e.Op))) }

func (e Edit) group() (int, error) {
	if e.Group == nil {
		return 0, fmt.Errorf("%w: %s needs a group", ErrMissingIndex, e.Op)
	}
	return *e.Group, nil
}

func (e Edit) lesson() (int, int, error) {
	gi, err := e.group()
	if err != nil {
		return 0, 0, err
	}
	if e.Lesson == nil {
		return 0, 0, fmt.Errorf("%w: %s needs a lesson", ErrMissingIndex, e.Op)
	}
	return gi, *e.Lesson, nil
}

// Apply performs e and returns the updated snapshot.
func (ed *Editor) Apply(e Edit) (model.Snapshot, error) {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	var err error
	switch e.op() {
	case OpAddGroup:
		ed.snap.Groups = append(ed.snap.Groups, model.NewGroup())
	case OpRemoveGroup:
		err = ed.removeGroup(e)
	case OpGroupName:
		err = ed.withGroup(e, func(g *model.Group) error {
			g.SetName(e.Value)
			return nil
		})
	case OpAddLesson:
		err = ed.withGroup(e, func(g *model.Group) error {
			g.AddLesson()
			return nil
		})
	case OpRemoveLesson:
		err = ed.removeLesson(e)
	case OpResetLesson:
		err = ed.withLesson(e, (*model.Lesson).Reset)
	case OpNum:
		err = ed.withLesson(e, func(l *model.Lesson) { l.SetNumText(e.Value) })
	case OpSubgroup:
		err = ed.withLesson(e, func(l *model.Lesson) { l.SetSubgroupText(e.Value) })
	case OpName:
		err = ed.withLesson(e, func(l *model.Lesson) { l.SetName(e.Value) })
	case OpTeacher:
		err = ed.withLesson(e, func(l *model.Lesson) { l.SetTeacher(e.Value) })
	case OpClassroom:
		err = ed.withLesson(e, func(l *model.Lesson) { l.SetClassroom(e.Value) })
	default:
		return model.Snapshot{}, fmt.Errorf("unknown edit %q", e.Op)
	}
	if err != nil {
		return model.Snapshot{}, err
	}
	ed.snap.Rehash()
	return ed.snap.Clone(), nil
}

func lessonErr(gi, li int) error {
	return fmt.Errorf("%w: group %d lesson %d", ErrNoSuchLesson, gi, li)
}

func groupErr(gi int) error {
	return fmt.Errorf("%w: %d", ErrNoSuchGroup, gi)
}

func (ed *Editor) withGroup(e Edit, fn func(*model.Group) error) error {
	gi, err := e.group()
	if err != nil {
		return err
	}
	if gi < 0 || gi >= len(ed.snap.Groups) {
		return groupErr(gi)
	}
	return fn(&ed.snap.Groups[gi])
}

func (ed *Editor) withLesson(e Edit, fn func(*model.Lesson)) error {
	gi, li, err := e.lesson()
	if err != nil {
		return err
	}
	return ed.withGroup(e, func(g *model.Group) error {
		if !g.UpdateLesson(li, fn) {
			return lessonErr(gi, li)
		}
		return nil
	})
}

func (ed *Editor) removeLesson(e Edit) error {
	gi, li, err := e.lesson()
	if err != nil {
		return err
	}
	return ed.withGroup(e, func(g *model.Group) error {
		if !g.RemoveLesson(li) {
			return lessonErr(gi, li)
		}
		return nil
	})
}

func (ed *Editor) removeGroup(e Edit) error {
	gi, err := e.group()
	if err != nil {
		return err
	}
	if gi < 0 || gi >= len(ed.snap.Groups) {
		return groupErr(gi)
	}
	ed.snap.Groups = append(ed.snap.Groups[:gi], ed.snap.Groups[gi+1:]...)
	return nil
}

// AddGroup appends a group with the default name.
func (ed *Editor) AddGroup() (model.Snapshot, error) {
	return ed.Apply(Edit{Op: OpAddGroup})
}

// RemoveGroup deletes the group at gi.
func (ed *Editor) RemoveGroup(gi int) (model.Snapshot, error) {
	return ed.Apply(Edit{Op: OpRemoveGroup, Group: &gi})
}

// SetGroupName renames the group at gi.
func (ed *Editor) SetGroupName(gi int, name string) (model.Snapshot, error) {
	return ed.Apply(Edit{Op: OpGroupName, Group: &gi, Value: name})
}

// AddLesson appends a lesson numbered after the group's last one.
func (ed *Editor) AddLesson(gi int) (model.Snapshot, error) {
	return ed.Apply(Edit{Op: OpAddLesson, Group: &gi})
}

// RemoveLesson deletes one lesson.
func (ed *Editor) RemoveLesson(gi, li int) (model.Snapshot, error) {
	return ed.Apply(Edit{Op: OpRemoveLesson, Group: &gi, Lesson: &li})
}

// ResetLesson clears every field of one lesson.
func (ed *Editor) ResetLesson(gi, li int) (model.Snapshot, error) {
	return ed.Apply(Edit{Op: OpResetLesson, Group: &gi, Lesson: &li})
}

// SetLessonField applies raw text input to a single lesson field.
func (ed *Editor) SetLessonField(op Op, gi, li int, value string) (model.Snapshot, error) {
	switch op {
	case OpNum, OpSubgroup, OpName, OpTeacher, OpClassroom:
		return ed.Apply(Edit{Op: op, Group: &gi, Lesson: &li, Value: value})
	}
	return model.Snapshot{}, fmt.Errorf("%q is not a lesson field", op)
}
