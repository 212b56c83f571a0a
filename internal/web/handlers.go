package web

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"schedsnap/internal/editor"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
	"schedsnap/internal/publish"
	"schedsnap/internal/resolve"
)

const maxWeekDays = 31

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type importRequest struct {
	Weekday string `json:"weekday"`
	Intent  string `json:"intent"`
}

type openRequest struct {
	UID string `json:"uid"`
}

type dateRequest struct {
	Date model.Date `json:"date"`
}

type groupsRequest struct {
	Groups []model.Group `json:"groups"`
}

type templateOpenRequest struct {
	Weekday string `json:"weekday"`
}

type templateExportResponse struct {
	Weekday string `json:"weekday"`
	Path    string `json:"path"`
}

type publishResponse struct {
	Key string `json:"key"`
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// fail maps domain errors to HTTP statuses.
func fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, editor.ErrTemplateNotFound),
		errors.Is(err, editor.ErrNoSuchGroup),
		errors.Is(err, editor.ErrNoSuchLesson),
		errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, editor.ErrMissingIndex):
		status = http.StatusBadRequest
	case errors.Is(err, editor.ErrNoTemplate),
		errors.Is(err, editor.ErrDuplicateGroup):
		status = http.StatusConflict
	case errors.Is(err, publish.ErrDisabled):
		status = http.StatusServiceUnavailable
	default:
		appLog.Error(msg, err, "path", c.Request.URL.Path)
	}
	c.JSON(status, errorResponse{Error: msg, Message: err.Error()})
}

func (s *Server) today() model.Date {
	return model.DateOf(s.deps.Now().In(s.deps.Location))
}

func (s *Server) handleTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.deps.Templates.Days()})
}

func (s *Server) handleTemplate(c *gin.Context) {
	w, err := model.ParseWeekday(c.Param("weekday"))
	if err != nil {
		badRequest(c, "invalid weekday", err)
		return
	}
	day, ok := s.deps.Templates.Lookup(w)
	if !ok {
		fail(c, "template not found", fmt.Errorf("%w: %s", editor.ErrTemplateNotFound, w))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": day})
}

// handleResolve returns the snapshot a date's template produces, without
// touching the edited snapshot.
//
// GET /api/resolve?date=2026-03-02 (default: today)
func (s *Server) handleResolve(c *gin.Context) {
	date := s.today()
	if q := c.Query("date"); q != "" {
		d, err := model.ParseDate(q)
		if err != nil {
			badRequest(c, "invalid date", err)
			return
		}
		date = d
	}

	cacheKey := "resolve:" + date.String()
	if cached, found := s.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
		return
	}

	w, ok := model.WeekdayOf(date.Weekday())
	if !ok {
		fail(c, "no template on sunday", fmt.Errorf("%w: %s", editor.ErrTemplateNotFound, date))
		return
	}
	day, ok := s.deps.Templates.Lookup(w)
	if !ok {
		fail(c, "template not found", fmt.Errorf("%w: %s", editor.ErrTemplateNotFound, w))
		return
	}
	snap := resolve.Resolve(day, date, s.deps.Now())

	s.cache.SetDefault(cacheKey, snap)
	c.JSON(http.StatusOK, gin.H{"data": snap, "cached": false})
}

// handleWeek resolves every templated date in a window.
//
// GET /api/week?from=2026-03-02&days=7
func (s *Server) handleWeek(c *gin.Context) {
	from := s.today()
	if q := c.Query("from"); q != "" {
		d, err := model.ParseDate(q)
		if err != nil {
			badRequest(c, "invalid from", err)
			return
		}
		from = d
	}
	days := 7
	if q := c.Query("days"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxWeekDays {
			badRequest(c, fmt.Sprintf("days must be between 1 and %d", maxWeekDays), err)
			return
		}
		days = n
	}

	cacheKey := fmt.Sprintf("week:%s:%d", from, days)
	if cached, found := s.cache.Get(cacheKey); found {
		c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
		return
	}

	snaps, err := resolve.ResolveRange(s.deps.Templates, from, from.AddDays(days-1), s.deps.Now())
	if err != nil {
		fail(c, "failed to resolve range", err)
		return
	}
	s.cache.SetDefault(cacheKey, snaps)
	c.JSON(http.StatusOK, gin.H{"data": snaps, "cached": false})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Editor.Snapshot())
}

func (s *Server) handleSnapshotICS(c *gin.Context) {
	snap := s.deps.Editor.Snapshot()
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, snap.UID))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", s.deps.Editor.Calendar(snap))
}

func (s *Server) handleNew(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Editor.NewEmpty())
}

// POST /api/snapshot/import {"weekday":"mon"} or {"intent":"tomorrow"}
func (s *Server) handleImport(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	var (
		snap model.Snapshot
		err  error
	)
	switch {
	case req.Weekday != "":
		w, perr := model.ParseWeekday(req.Weekday)
		if perr != nil {
			badRequest(c, "invalid weekday", perr)
			return
		}
		snap, err = s.deps.Editor.ImportTemplate(w)
	case req.Intent != "":
		intent, perr := resolve.ParseIntent(req.Intent)
		if perr != nil {
			badRequest(c, "invalid intent", perr)
			return
		}
		snap, err = s.deps.Editor.ImportIntent(intent)
	default:
		badRequest(c, "weekday or intent is required", nil)
		return
	}
	if err != nil {
		fail(c, "import failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// handleOpen loads a previously exported snapshot by uid. Only files inside
// the export directory can be opened.
func (s *Server) handleOpen(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	id, err := uuid.Parse(req.UID)
	if err != nil {
		badRequest(c, "invalid uid", err)
		return
	}
	snap, err := s.deps.Editor.Open(s.deps.Exporter.SnapshotPath(model.UID(id.String())))
	if err != nil {
		fail(c, "open failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleSetDate(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if req.Date.IsZero() {
		badRequest(c, "date is required", nil)
		return
	}
	c.JSON(http.StatusOK, s.deps.Editor.SetDate(req.Date))
}

func (s *Server) handleSetGroups(c *gin.Context) {
	var req groupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Editor.SetGroups(req.Groups))
}

func (s *Server) handleSort(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Editor.Sort())
}

// POST /api/snapshot/edit {"op":"num","group":0,"lesson":1,"value":"3"}
func (s *Server) handleEdit(c *gin.Context) {
	var req editor.Edit
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	snap, err := s.deps.Editor.Apply(req)
	if err != nil {
		editFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// editFailed reports index errors through fail and anything else, such as
// an unknown op, as a bad request.
func editFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, editor.ErrNoSuchGroup),
		errors.Is(err, editor.ErrNoSuchLesson),
		errors.Is(err, editor.ErrMissingIndex),
		errors.Is(err, editor.ErrNoTemplate),
		errors.Is(err, editor.ErrDuplicateGroup):
		fail(c, "edit failed", err)
	default:
		badRequest(c, "edit failed", err)
	}
}

// POST /api/snapshot/export[?ics=1]
func (s *Server) handleExport(c *gin.Context) {
	withICS, _ := strconv.ParseBool(c.Query("ics"))
	out, err := s.deps.Editor.Export(withICS)
	if err != nil {
		fail(c, "export failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePublish(c *gin.Context) {
	key, err := s.deps.Editor.Publish(c.Request.Context())
	if err != nil {
		fail(c, "publish failed", err)
		return
	}
	c.JSON(http.StatusOK, publishResponse{Key: key})
}

func (s *Server) handleTemplateCurrent(c *gin.Context) {
	day, err := s.deps.Editor.Template()
	if err != nil {
		fail(c, "no template open", err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// POST /api/template/open {"weekday":"mon"}
func (s *Server) handleTemplateOpen(c *gin.Context) {
	var req templateOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	w, err := model.ParseWeekday(req.Weekday)
	if err != nil {
		badRequest(c, "invalid weekday", err)
		return
	}
	day, err := s.deps.Editor.EditTemplate(w)
	if err != nil {
		fail(c, "open template failed", err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// POST /api/template/edit {"op":"parity","group":0,"lesson":1,"value":"even"}
func (s *Server) handleTemplateEdit(c *gin.Context) {
	var req editor.Edit
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	day, err := s.deps.Editor.ApplyTemplate(req)
	if err != nil {
		editFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

func (s *Server) handleTemplateExport(c *gin.Context) {
	w, path, err := s.deps.Editor.ExportTemplate()
	if err != nil {
		fail(c, "template export failed", err)
		return
	}
	c.JSON(http.StatusOK, templateExportResponse{Weekday: w.String(), Path: path})
}
