package templates

import (
	"os"
	"path/filepath"
	"testing"

	"schedsnap/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mon.json", `{"day":"mon","groups":[{"name":"A","lessons":[{"num":1,"subgroup":null,"name":"Math","teacher":null,"classroom":null,"is_even":null}]}]}`)
	// Long names are accepted too; the file name decides the weekday.
	writeFile(t, dir, "tuesday.json", `{"day":"fri","groups":[]}`)
	writeFile(t, dir, "wed.json", `{not json`)
	writeFile(t, dir, "thu.json", `{"day":"thu","groups":[{"name":"B","lessons":[{"num":0,"name":"bad"},{"num":2,"name":"ok"}]}]}`)

	set := LoadDir(dir)

	if set.Len() != 3 {
		t.Fatalf("loaded %d days, want 3", set.Len())
	}
	mon, ok := set.Lookup(model.Monday)
	if !ok || mon.Groups[0].Lessons[0].Name != "Math" {
		t.Errorf("monday template = %+v, %v", mon, ok)
	}
	tue, ok := set.Lookup(model.Tuesday)
	if !ok || tue.Day != model.Tuesday {
		t.Errorf("tuesday should be keyed by file name, got %+v, %v", tue, ok)
	}
	if _, ok := set.Lookup(model.Wednesday); ok {
		t.Error("unparsable wednesday must be absent")
	}
	if _, ok := set.Lookup(model.Saturday); ok {
		t.Error("missing saturday must be absent")
	}
	thu, _ := set.Lookup(model.Thursday)
	if n := len(thu.Groups[0].Lessons); n != 1 || thu.Groups[0].Lessons[0].Name != "ok" {
		t.Errorf("lesson without slot should be dropped: %+v", thu.Groups[0].Lessons)
	}

	days := set.Days()
	if len(days) != 3 || days[0].Day != model.Monday || days[2].Day != model.Thursday {
		t.Errorf("Days() not in weekday order: %+v", days)
	}
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	set := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d", set.Len())
	}
}

func TestMergeLaterWins(t *testing.T) {
	a := NewSet(
		model.DefaultDay{Day: model.Monday, Groups: []model.DefaultGroup{{Name: "old"}}},
		model.DefaultDay{Day: model.Friday},
	)
	b := NewSet(model.DefaultDay{Day: model.Monday, Groups: []model.DefaultGroup{{Name: "new"}}})

	m := Merge(a, nil, b)
	if m.Len() != 2 {
		t.Fatalf("merged len = %d", m.Len())
	}
	mon, _ := m.Lookup(model.Monday)
	if mon.Groups[0].Name != "new" {
		t.Errorf("later set should win, got %q", mon.Groups[0].Name)
	}
}

func TestNilSet(t *testing.T) {
	var s *Set
	if _, ok := s.Lookup(model.Monday); ok || s.Len() != 0 || len(s.Days()) != 0 {
		t.Error("nil set should behave as empty")
	}
	if NewSet(model.DefaultDay{Day: model.Weekday(6)}).Len() != 0 {
		t.Error("invalid weekday should be ignored")
	}
}
