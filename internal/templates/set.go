// Package templates loads the weekday schedule templates once at startup
// and serves them read-only for the rest of the process.
package templates

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// Set is an immutable collection of at most one template per weekday.
// Values handed out by Lookup must be treated as read-only; resolve copies
// them before anything becomes editable.
type Set struct {
	days map[model.Weekday]model.DefaultDay
}

// NewSet builds a Set. When two templates share a weekday the later wins.
func NewSet(days ...model.DefaultDay) *Set {
	s := &Set{days: make(map[model.Weekday]model.DefaultDay, len(days))}
	for _, d := range days {
		if !d.Day.Valid() {
			appLog.Warn("templates: ignoring template with invalid weekday", "day", int(d.Day))
			continue
		}
		s.days[d.Day] = d
	}
	return s
}

// Merge layers sets; templates from later sets replace earlier ones.
func Merge(sets ...*Set) *Set {
	out := &Set{days: make(map[model.Weekday]model.DefaultDay)}
	for _, s := range sets {
		if s == nil {
			continue
		}
		for w, d := range s.days {
			out.days[w] = d
		}
	}
	return out
}

// Lookup returns the template for w.
func (s *Set) Lookup(w model.Weekday) (model.DefaultDay, bool) {
	if s == nil {
		return model.DefaultDay{}, false
	}
	d, ok := s.days[w]
	return d, ok
}

// Days returns the loaded templates in weekday order.
func (s *Set) Days() []model.DefaultDay {
	out := make([]model.DefaultDay, 0, s.Len())
	for _, w := range model.Weekdays() {
		if d, ok := s.Lookup(w); ok {
			out = append(out, d)
		}
	}
	return out
}

// Len reports how many weekdays have a template.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.days)
}

// candidateNames lists the file names tried for w, short form first.
func candidateNames(w model.Weekday) []string {
	return []string{w.Short() + ".json", w.String() + ".json"}
}

// LoadDir reads mon.json..sat.json (or monday.json..saturday.json) from dir.
// A missing or unparsable file is logged and that weekday is left out;
// nothing here is fatal.
func LoadDir(dir string) *Set {
	days := make([]model.DefaultDay, 0, 6)
	for _, w := range model.Weekdays() {
		d, ok := loadDay(dir, w)
		if ok {
			days = append(days, d)
		}
	}
	appLog.Info("templates loaded from directory", "dir", dir, "days", len(days))
	return NewSet(days...)
}

func loadDay(dir string, w model.Weekday) (model.DefaultDay, bool) {
	for _, name := range candidateNames(w) {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			appLog.Warn("templates: cannot read file", "path", path, "err", err)
			return model.DefaultDay{}, false
		}
		return decodeDay(data, w, path)
	}
	appLog.Warn("templates: no template for weekday", "weekday", w.String(), "dir", dir)
	return model.DefaultDay{}, false
}
