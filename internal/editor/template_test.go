package editor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"schedsnap/internal/model"
	"schedsnap/internal/store"
)

func TestTemplate_NothingOpen(t *testing.T) {
	e, _ := newEditor(t, wednesday)
	if _, err := e.Template(); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("Template err = %v", err)
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpAddGroup}); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("ApplyTemplate err = %v", err)
	}
	if _, _, err := e.ExportTemplate(); !errors.Is(err, ErrNoTemplate) {
		t.Errorf("ExportTemplate err = %v", err)
	}
}

func TestEditTemplate_DoesNotTouchLoadedSet(t *testing.T) {
	e, _ := newEditor(t, wednesday)
	day, err := e.EditTemplate(model.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(day.Groups) != 1 || day.Groups[0].Name != "A" {
		t.Fatalf("opened %+v", day)
	}

	g, l := model.Ptr(0), model.Ptr(0)
	if _, err := e.ApplyTemplate(Edit{Op: OpName, Group: g, Lesson: l, Value: "Algebra"}); err != nil {
		t.Fatal(err)
	}
	loaded, _ := e.opts.Templates.Lookup(model.Monday)
	if loaded.Groups[0].Lessons[0].Name != "Math" {
		t.Error("editing the template changed the loaded set")
	}

	// Imports still resolve from the loaded set.
	s, err := e.ImportTemplate(model.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if s.Groups[0].Lessons[0].Name != "Art" {
		t.Errorf("imported %+v", s.Groups[0].Lessons)
	}
}

func TestEditTemplate_BlankWhenMissing(t *testing.T) {
	e, _ := newEditor(t, wednesday)
	day, err := e.EditTemplate(model.Saturday)
	if err != nil {
		t.Fatal(err)
	}
	if day.Day != model.Saturday || day.Groups == nil || len(day.Groups) != 0 {
		t.Errorf("blank template = %+v", day)
	}
	if _, err := e.EditTemplate(model.Weekday(9)); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("invalid weekday err = %v", err)
	}
}

func TestApplyTemplate_Ops(t *testing.T) {
	e, _ := newEditor(t, wednesday)
	if _, err := e.EditTemplate(model.Tuesday); err != nil {
		t.Fatal(err)
	}
	g0, g1, l0, l1 := model.Ptr(0), model.Ptr(1), model.Ptr(0), model.Ptr(1)
	steps := []Edit{
		{Op: OpAddGroup},
		{Op: OpGroupName, Group: g0, Value: "A"},
		{Op: OpAddLesson, Group: g0},
		{Op: OpAddLesson, Group: g0},
		{Op: OpName, Group: g0, Lesson: l0, Value: "Math"},
		{Op: OpParity, Group: g0, Lesson: l0, Value: "odd"},
		{Op: OpNum, Group: g0, Lesson: l1, Value: "5"},
		{Op: OpNum, Group: g0, Lesson: l1, Value: "x"},
		{Op: OpSubgroup, Group: g0, Lesson: l1, Value: "2"},
		{Op: OpTeacher, Group: g0, Lesson: l1, Value: "Ivanova"},
		{Op: OpClassroom, Group: g0, Lesson: l1, Value: "204"},
		{Op: OpAddGroup},
		{Op: OpGroupName, Group: g1, Value: "B"},
	}
	var day model.DefaultDay
	for _, step := range steps {
		var err error
		if day, err = e.ApplyTemplate(step); err != nil {
			t.Fatalf("%s: %v", step.Op, err)
		}
	}

	if len(day.Groups) != 2 || day.Groups[1].Name != "B" {
		t.Fatalf("groups = %+v", day.Groups)
	}
	math, art := day.Groups[0].Lessons[0], day.Groups[0].Lessons[1]
	if math.Num != 1 || math.Name != "Math" || math.Parity() != model.ParityOdd {
		t.Errorf("first lesson = %+v", math)
	}
	if art.Num != 5 {
		t.Errorf("invalid slot input should keep 5, got %d", art.Num)
	}
	if art.Subgroup == nil || *art.Subgroup != 2 || art.Teacher == nil || *art.Teacher != "Ivanova" || art.Classroom == nil || *art.Classroom != "204" {
		t.Errorf("second lesson = %+v", art)
	}

	if _, err := e.ApplyTemplate(Edit{Op: OpGroupName, Group: g1, Value: "A"}); !errors.Is(err, ErrDuplicateGroup) {
		t.Errorf("duplicate name err = %v", err)
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpGroupName, Group: g0, Value: "A"}); err != nil {
		t.Errorf("keeping a group's own name: %v", err)
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpParity, Group: g0, Lesson: l0, Value: "sometimes"}); err == nil {
		t.Error("expected error for unknown parity")
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpResetLesson, Group: g0, Lesson: l0}); err == nil {
		t.Error("reset_lesson is not a template edit")
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpAddLesson}); !errors.Is(err, ErrMissingIndex) {
		t.Errorf("missing group err = %v", err)
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpName, Group: g0, Lesson: model.Ptr(7)}); !errors.Is(err, ErrNoSuchLesson) {
		t.Errorf("bad lesson err = %v", err)
	}

	if day, err := e.ApplyTemplate(Edit{Op: OpRemoveLesson, Group: g0, Lesson: l0}); err != nil || len(day.Groups[0].Lessons) != 1 {
		t.Errorf("remove lesson = %+v, %v", day, err)
	}
	if day, err := e.ApplyTemplate(Edit{Op: OpRemoveGroup, Group: g1}); err != nil || len(day.Groups) != 1 {
		t.Errorf("remove group = %+v, %v", day, err)
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpRemoveGroup, Group: model.Ptr(4)}); !errors.Is(err, ErrNoSuchGroup) {
		t.Errorf("bad group err = %v", err)
	}
}

func TestExportTemplate_ReopensExportedCopy(t *testing.T) {
	e, dir := newEditor(t, wednesday)
	if _, err := e.EditTemplate(model.Monday); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ApplyTemplate(Edit{Op: OpAddGroup}); err != nil {
		t.Fatal(err)
	}
	w, path, err := e.ExportTemplate()
	if err != nil {
		t.Fatal(err)
	}
	if w != model.Monday || path != filepath.Join(dir, "monday.json") {
		t.Errorf("exported %s to %s", w, path)
	}
	saved, err := store.ReadTemplate(path)
	if err != nil || len(saved.Groups) != 2 {
		t.Fatalf("saved %+v, %v", saved, err)
	}

	// Reopening prefers the exported file over the loaded set.
	e.EditTemplate(model.Tuesday)
	day, err := e.EditTemplate(model.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(day.Groups) != 2 {
		t.Errorf("reopened %+v", day)
	}
}

func TestEditTemplate_UnreadableFileFallsBack(t *testing.T) {
	e, dir := newEditor(t, wednesday)
	if err := os.WriteFile(filepath.Join(dir, "monday.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	day, err := e.EditTemplate(model.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(day.Groups) != 1 || day.Groups[0].Name != "A" {
		t.Errorf("expected loaded template, got %+v", day)
	}
}
