package resolve

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// maxRangeDays caps range resolution; a school year fits comfortably.
const maxRangeDays = 400

var rruleDays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Lookup is the read-only template store consumed by range resolution.
type Lookup interface {
	Lookup(day model.Weekday) (model.DefaultDay, bool)
}

// Dates lists every date in [from, to] that falls on w, using a weekly
// recurrence rule anchored at from.
func Dates(w model.Weekday, from, to model.Date) ([]model.Date, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("dates: invalid weekday %d", int(w))
	}
	if to.Before(from) {
		return nil, errors.New("dates: range end is before range start")
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleDays[w]},
		Dtstart:   from.In(time.UTC),
		Until:     to.In(time.UTC),
	})
	if err != nil {
		return nil, fmt.Errorf("dates: build rule: %w", err)
	}

	times := r.All()
	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		out = append(out, model.DateOf(t))
	}
	return out, nil
}

// ResolveRange resolves every date in [from, to] that has a loaded template,
// ordered by date. Sundays and days without a template are skipped.
func ResolveRange(templates Lookup, from, to model.Date, now time.Time) ([]model.Snapshot, error) {
	if to.Before(from) {
		return nil, errors.New("resolve range: end is before start")
	}
	if span := int(to.In(time.UTC).Sub(from.In(time.UTC)).Hours() / 24); span > maxRangeDays {
		return nil, fmt.Errorf("resolve range: %d days exceeds the limit of %d", span, maxRangeDays)
	}

	out := make([]model.Snapshot, 0)
	for _, w := range model.Weekdays() {
		day, ok := templates.Lookup(w)
		if !ok {
			appLog.Debug("resolve range: no template", "weekday", w.String())
			continue
		}
		dates, err := Dates(w, from, to)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			out = append(out, Resolve(day, d, now))
		}
	}

	slices.SortFunc(out, func(a, b model.Snapshot) int {
		return a.Date.In(time.UTC).Compare(b.Date.In(time.UTC))
	})

	appLog.Info("resolve range completed",
		"from", from.String(),
		"to", to.String(),
		"snapshots", len(out),
	)
	return out, nil
}
