// Package editor holds the one snapshot being edited and exposes every
// operation a front-end may perform on it. After each call the group and
// snapshot uids match the content.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schedsnap/internal/calendar"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
	"schedsnap/internal/normalize"
	"schedsnap/internal/publish"
	"schedsnap/internal/resolve"
	"schedsnap/internal/store"
)

var (
	// ErrTemplateNotFound means no template is loaded for the requested weekday.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrNoSuchGroup and ErrNoSuchLesson report an index outside the snapshot.
	ErrNoSuchGroup  = errors.New("no such group")
	ErrNoSuchLesson = errors.New("no such lesson")
	// ErrMissingIndex means an edit left out the group or lesson it targets.
	ErrMissingIndex = errors.New("missing index")
)

// Publisher uploads an exported file and returns where it went.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// Options wires the editor to its collaborators.
type Options struct {
	Templates resolve.Lookup
	Exporter  *store.Exporter
	Bells     calendar.Bells
	Location  *time.Location
	// Publisher may be nil; Publish then fails with publish.ErrDisabled.
	Publisher Publisher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Editor is safe for concurrent use; calls are serialized.
type Editor struct {
	mu   sync.Mutex
	snap model.Snapshot
	// tmpl is the weekday template under edit, nil until EditTemplate.
	tmpl *model.DefaultDay
	opts Options
}

// New returns an editor holding an empty snapshot dated today.
func New(opts Options) *Editor {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Editor{opts: opts}
	e.snap = model.NewEmptySnapshot(e.today(), e.opts.Now())
	return e
}

func (e *Editor) now() time.Time { return e.opts.Now().In(e.opts.Location) }

func (e *Editor) today() model.Date { return model.DateOf(e.now()) }

// Snapshot returns a copy of the current snapshot.
func (e *Editor) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Clone()
}

// NewEmpty discards the current snapshot and starts an empty one for today.
func (e *Editor) NewEmpty() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = model.NewEmptySnapshot(e.today(), e.opts.Now())
	return e.snap.Clone()
}

// SetGroups replaces the group list wholesale. Lesson values outside the
// editable range are cleared and every uid is re-derived.
func (e *Editor) SetGroups(groups []model.Group) model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
		for li := range out[i].Lessons {
			out[i].Lessons[li].Normalize()
		}
		if out[i].Lessons == nil {
			out[i].Lessons = []model.Lesson{}
		}
	}
	e.snap.Groups = out
	e.snap.Rehash()
	return e.snap.Clone()
}

// ImportTemplate resolves the template for w into the current week and
// makes it the edited snapshot. On Sunday the coming week is used.
func (e *Editor) ImportTemplate(w model.Weekday) (model.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importDate(dateInWeek(e.today(), w))
}

// ImportIntent resolves the template for today or tomorrow.
func (e *Editor) ImportIntent(intent resolve.Intent) (model.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importDate(resolve.TargetDate(e.now(), intent))
}

func (e *Editor) importDate(date model.Date) (model.Snapshot, error) {
	w, ok := model.WeekdayOf(date.Weekday())
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s is a Sunday", ErrTemplateNotFound, date)
	}
	if e.opts.Templates == nil {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, w)
	}
	day, ok := e.opts.Templates.Lookup(w)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, w)
	}
	e.snap = resolve.Resolve(day, date, e.opts.Now())
	appLog.Info("template imported", "weekday", w.String(), "date", date.String(), "uid", e.snap.UID.String())
	return e.snap.Clone(), nil
}

// dateInWeek returns the date of weekday w in the Monday-based week that
// contains today, or the following week when today is Sunday.
func dateInWeek(today model.Date, w model.Weekday) model.Date {
	if today.Weekday() == time.Sunday {
		return today.AddDays(int(w.Time()))
	}
	return today.AddDays(int(w.Time()) - int(today.Weekday()))
}

// SetDate changes the snapshot's date. Identity does not depend on it.
func (e *Editor) SetDate(d model.Date) model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Date = d
	return e.snap.Clone()
}

// Sort orders groups by name and lessons by number, then re-derives uids.
func (e *Editor) Sort() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if normalize.Sorted(e.snap) {
		appLog.Debug("snapshot already sorted", "uid", e.snap.UID.String())
		return e.snap.Clone()
	}
	normalize.Sort(&e.snap)
	e.snap.Rehash()
	return e.snap.Clone()
}

// Exported names the files written for one snapshot.
type Exported struct {
	UID  model.UID `json:"uid"`
	Path string    `json:"path"`
	ICS  string    `json:"ics,omitempty"`
}

// Export writes the snapshot to <uid>.json in the export directory. With
// withCalendar the same copy is also written as <uid>.ics.
func (e *Editor) Export(withCalendar bool) (Exported, error) {
	s := e.Snapshot()
	if s.Stale() {
		s.Rehash()
	}
	out := Exported{UID: s.UID}
	var err error
	if out.Path, err = e.opts.Exporter.ExportSnapshot(s); err != nil {
		return out, err
	}
	if withCalendar {
		if out.ICS, err = e.opts.Exporter.ExportFile(s.UID, ".ics", e.Calendar(s)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Calendar renders s with the editor's bell schedule and timezone.
func (e *Editor) Calendar(s model.Snapshot) []byte {
	return calendar.Render(s, e.opts.Bells, e.opts.Location)
}

// Publish exports the snapshot and uploads the file.
func (e *Editor) Publish(ctx context.Context) (string, error) {
	if e.opts.Publisher == nil {
		return "", publish.ErrDisabled
	}
	out, err := e.Export(false)
	if err != nil {
		return "", err
	}
	return e.opts.Publisher.Publish(ctx, out.Path)
}

// Open replaces the edited snapshot with one read from path. Stored uids
// that no longer match the content are re-derived.
func (e *Editor) Open(path string) (model.Snapshot, error) {
	s, err := store.ReadSnapshot(path)
	if err != nil {
		return model.Snapshot{}, err
	}
	for gi := range s.Groups {
		if s.Groups[gi].Lessons == nil {
			s.Groups[gi].Lessons = []model.Lesson{}
		}
		for li := range s.Groups[gi].Lessons {
			s.Groups[gi].Lessons[li].Normalize()
		}
	}
	if s.Groups == nil {
		s.Groups = []model.Group{}
	}
	if s.Stale() {
		appLog.Warn("opened snapshot had stale uids; re-deriving", "path", path, "uid", s.UID.String())
		s.Rehash()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = s
	return e.snap.Clone(), nil
}
