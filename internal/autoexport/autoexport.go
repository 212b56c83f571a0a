// Package autoexport resolves tomorrow's template on a schedule and writes
// it to the export directory, optionally publishing the result.
package autoexport

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"schedsnap/internal/calendar"
	"schedsnap/internal/editor"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
	"schedsnap/internal/resolve"
	"schedsnap/internal/store"
)

// Job is one "resolve tomorrow and export" run.
type Job struct {
	Templates resolve.Lookup
	Exporter  *store.Exporter
	Bells     calendar.Bells
	Location  *time.Location
	// Publisher receives both exported files when Publish is set.
	Publisher editor.Publisher
	Publish   bool
	Now       func() time.Time
}

// Result lists what a run produced.
type Result struct {
	UID       model.UID
	Date      model.Date
	Snapshot  string
	Calendar  string
	Published []string
}

// Run resolves the template that applies tomorrow (Monday when tomorrow is
// Sunday) and exports it as JSON and iCalendar.
func (j *Job) Run(ctx context.Context) (Result, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	loc := j.Location
	if loc == nil {
		loc = time.Local
	}

	date := resolve.TargetDate(now().In(loc), resolve.Tomorrow)
	w, _ := model.WeekdayOf(date.Weekday())
	day, ok := j.Templates.Lookup(w)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", editor.ErrTemplateNotFound, w)
	}

	snap := resolve.Resolve(day, date, now())
	res := Result{UID: snap.UID, Date: date}

	var err error
	if res.Snapshot, err = j.Exporter.ExportSnapshot(snap); err != nil {
		return res, err
	}
	if res.Calendar, err = j.Exporter.ExportFile(snap.UID, ".ics", calendar.Render(snap, j.Bells, loc)); err != nil {
		return res, err
	}

	if j.Publish && j.Publisher != nil {
		for _, path := range []string{res.Snapshot, res.Calendar} {
			key, err := j.Publisher.Publish(ctx, path)
			if err != nil {
				return res, err
			}
			res.Published = append(res.Published, key)
		}
	}
	appLog.Info("auto export completed",
		"date", date.String(),
		"uid", snap.UID.String(),
		"published", len(res.Published),
	)
	return res, nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	id   cron.EntryID
}

// Schedule registers job under a standard 5-field cron spec evaluated in
// loc. The scheduler is not started.
func Schedule(spec string, job *Job, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))
	id, err := c.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			appLog.Error("auto export failed", err, "spec", spec)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("auto export schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, id: id}, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	appLog.Info("auto export scheduled", "next", s.Next().Format(time.RFC3339))
}

// Next is the next planned run, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.id).Next
}

// Stop halts the schedule; the returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
