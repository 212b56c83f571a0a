package templates

import (
	"encoding/json"

	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

// decodeDay parses one template payload for weekday w. The source name
// (file path or URL) decides the weekday; a disagreeing "day" field is
// logged and overridden.
func decodeDay(data []byte, w model.Weekday, source string) (model.DefaultDay, bool) {
	var d model.DefaultDay
	if err := json.Unmarshal(data, &d); err != nil {
		appLog.Warn("templates: cannot parse template", "source", source, "err", err)
		return model.DefaultDay{}, false
	}
	if d.Day != w {
		appLog.Warn("templates: weekday field disagrees with source name",
			"source", source,
			"field", d.Day.String(),
			"expected", w.String(),
		)
		d.Day = w
	}
	sanitize(&d, source)
	return d, true
}

// sanitize drops template lessons without a positive slot.
func sanitize(d *model.DefaultDay, source string) {
	for gi := range d.Groups {
		g := &d.Groups[gi]
		kept := g.Lessons[:0]
		for _, l := range g.Lessons {
			if l.Num <= 0 {
				appLog.Warn("templates: dropping lesson without slot",
					"source", source,
					"group", g.Name,
					"lesson", l.Name,
				)
				continue
			}
			kept = append(kept, l)
		}
		g.Lessons = kept
	}
}
