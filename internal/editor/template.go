package editor

import (
	"errors"
	"fmt"
	"io/fs"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
	"schedsnap/internal/store"
)

var (
	// ErrNoTemplate means a template edit arrived before EditTemplate.
	ErrNoTemplate = errors.New("no template open")
	// ErrDuplicateGroup rejects a template group name that is already used.
	// Template sources merge lessons into groups by name.
	ErrDuplicateGroup = errors.New("group name already used")
)

// EditTemplate opens the template for w as a private working copy. The last
// exported <weekday>.json wins over the set loaded at startup; with neither
// a blank day is started.
func (e *Editor) EditTemplate(w model.Weekday) (model.DefaultDay, error) {
	if !w.Valid() {
		return model.DefaultDay{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, w)
	}

	day, source := model.DefaultDay{Day: w, Groups: []model.DefaultGroup{}}, "blank"
	if e.opts.Templates != nil {
		if d, ok := e.opts.Templates.Lookup(w); ok {
			day, source = d.Clone(), "loaded"
		}
	}
	if e.opts.Exporter != nil {
		path := e.opts.Exporter.TemplatePath(w)
		d, err := store.ReadTemplate(path)
		switch {
		case err == nil:
			if d.Day != w {
				appLog.Warn("template file names another weekday", "path", path, "day", d.Day.String())
			}
			d.Day = w
			day, source = d.Clone(), "exported"
		case !errors.Is(err, fs.ErrNotExist):
			appLog.Warn("ignoring unreadable template file", "path", path, "err", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tmpl = &day
	appLog.Info("template opened", "weekday", w.String(), "source", source, "groups", len(day.Groups))
	return day.Clone(), nil
}

// Template returns a copy of the template under edit.
func (e *Editor) Template() (model.DefaultDay, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tmpl == nil {
		return model.DefaultDay{}, ErrNoTemplate
	}
	return e.tmpl.Clone(), nil
}

// ApplyTemplate performs e on the template under edit. reset_lesson has no
// template meaning; parity takes every, even or odd.
func (e *Editor) ApplyTemplate(ed Edit) (model.DefaultDay, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tmpl == nil {
		return model.DefaultDay{}, ErrNoTemplate
	}
	t := e.tmpl

	var err error
	switch ed.op() {
	case OpAddGroup:
		t.Groups = append(t.Groups, model.DefaultGroup{Name: model.DefaultGroupName, Lessons: []model.DefaultLesson{}})
	case OpRemoveGroup:
		err = withTemplateGroup(t, ed, func(gi int, _ *model.DefaultGroup) error {
			t.Groups = append(t.Groups[:gi], t.Groups[gi+1:]...)
			return nil
		})
	case OpGroupName:
		err = withTemplateGroup(t, ed, func(gi int, g *model.DefaultGroup) error {
			if other, ok := t.GroupIndex(ed.Value); ok && other != gi {
				return fmt.Errorf("%w: %q", ErrDuplicateGroup, ed.Value)
			}
			g.Name = ed.Value
			return nil
		})
	case OpAddLesson:
		err = withTemplateGroup(t, ed, func(_ int, g *model.DefaultGroup) error {
			var prev *model.DefaultLesson
			if n := len(g.Lessons); n > 0 {
				prev = &g.Lessons[n-1]
			}
			g.Lessons = append(g.Lessons, model.NewDefaultLessonAfter(prev))
			return nil
		})
	case OpRemoveLesson:
		err = withTemplateGroup(t, ed, func(gi int, g *model.DefaultGroup) error {
			li, lerr := templateLesson(ed, gi, g)
			if lerr != nil {
				return lerr
			}
			g.Lessons = append(g.Lessons[:li], g.Lessons[li+1:]...)
			return nil
		})
	case OpNum:
		err = withTemplateLesson(t, ed, func(l *model.DefaultLesson) error {
			l.SetNumText(ed.Value)
			return nil
		})
	case OpSubgroup:
		err = withTemplateLesson(t, ed, func(l *model.DefaultLesson) error {
			l.SetSubgroupText(ed.Value)
			return nil
		})
	case OpName:
		err = withTemplateLesson(t, ed, func(l *model.DefaultLesson) error {
			l.Name = ed.Value
			return nil
		})
	case OpTeacher:
		err = withTemplateLesson(t, ed, func(l *model.DefaultLesson) error {
			l.Teacher = model.Ptr(ed.Value)
			return nil
		})
	case OpClassroom:
		err = withTemplateLesson(t, ed, func(l *model.DefaultLesson) error {
			l.Classroom = model.Ptr(ed.Value)
			return nil
		})
	case OpParity:
		err = withTemplateLesson(t, ed, func(l *model.DefaultLesson) error {
			p, perr := model.ParseParity(ed.Value)
			if perr != nil {
				return perr
			}
			l.SetParity(p)
			return nil
		})
	default:
		return model.DefaultDay{}, fmt.Errorf("unknown template edit %q", ed.Op)
	}
	if err != nil {
		return model.DefaultDay{}, err
	}
	return t.Clone(), nil
}

func withTemplateGroup(t *model.DefaultDay, ed Edit, fn func(int, *model.DefaultGroup) error) error {
	gi, err := ed.group()
	if err != nil {
		return err
	}
	if gi < 0 || gi >= len(t.Groups) {
		return groupErr(gi)
	}
	return fn(gi, &t.Groups[gi])
}

func templateLesson(ed Edit, gi int, g *model.DefaultGroup) (int, error) {
	_, li, err := ed.lesson()
	if err != nil {
		return 0, err
	}
	if li < 0 || li >= len(g.Lessons) {
		return 0, lessonErr(gi, li)
	}
	return li, nil
}

func withTemplateLesson(t *model.DefaultDay, ed Edit, fn func(*model.DefaultLesson) error) error {
	return withTemplateGroup(t, ed, func(gi int, g *model.DefaultGroup) error {
		li, err := templateLesson(ed, gi, g)
		if err != nil {
			return err
		}
		return fn(&g.Lessons[li])
	})
}

// ExportTemplate writes the template under edit to <weekday>.json in the
// export directory. The loaded set is not changed; the file is picked up
// by the next EditTemplate and by the next start.
func (e *Editor) ExportTemplate() (model.Weekday, string, error) {
	t, err := e.Template()
	if err != nil {
		return 0, "", err
	}
	path, err := e.opts.Exporter.ExportTemplate(t)
	return t.Day, path, err
}
