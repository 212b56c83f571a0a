package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schedsnap/internal/capture"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
)

type previewLesson struct {
	Num, Subgroup, Name, Teacher, Classroom string
}

type previewGroup struct {
	Name    string
	Lessons []previewLesson
}

type previewPage struct {
	UID     string
	Date    string
	Weekday string
	Groups  []previewGroup
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func optStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func newPreviewPage(s model.Snapshot) previewPage {
	page := previewPage{UID: s.UID.String(), Date: s.Date.String()}
	if !s.Date.IsZero() {
		page.Weekday = s.Date.Weekday().String()
	}
	for _, g := range s.Groups {
		pg := previewGroup{Name: g.Name}
		for _, l := range g.Lessons {
			pg.Lessons = append(pg.Lessons, previewLesson{
				Num:       optInt(l.Num),
				Subgroup:  optInt(l.Subgroup),
				Name:      l.Name,
				Teacher:   optStr(l.Teacher),
				Classroom: optStr(l.Classroom),
			})
		}
		page.Groups = append(page.Groups, pg)
	}
	return page
}

// handlePreview renders the edited snapshot as a static HTML page. The root
// element carries data-ready="true" so a headless browser knows when to
// take the screenshot.
func (s *Server) handlePreview(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.preview.Execute(&buf, newPreviewPage(s.deps.Editor.Snapshot())); err != nil {
		appLog.Error("preview render failed", err)
		c.String(http.StatusInternalServerError, "preview render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handlePreviewPNG captures /preview through the configured Shooter, keeps
// a copy as <uid>.png in the export directory and returns the image.
func (s *Server) handlePreviewPNG(c *gin.Context) {
	if s.deps.Shooter == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "preview capture is not available"})
		return
	}
	snap := s.deps.Editor.Snapshot()
	path, err := capture.SnapshotPNG(c.Request.Context(), s.deps.Shooter, s.deps.Exporter, snap, capture.Options{
		URL: s.selfURL("/preview"),
	})
	if err != nil {
		fail(c, "preview capture failed", err)
		return
	}
	c.File(path)
}
