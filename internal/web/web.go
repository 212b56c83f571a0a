package web

import (
	"crypto/subtle"
	"embed"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"

	"schedsnap/internal/capture"
	"schedsnap/internal/config"
	"schedsnap/internal/editor"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/store"
	"schedsnap/internal/templates"
)

//go:embed assets/preview.html
var assets embed.FS

// Deps are the collaborators the HTTP front-end drives.
type Deps struct {
	Editor    *editor.Editor
	Templates *templates.Set
	Exporter  *store.Exporter
	// Shooter renders /preview.png; nil disables the endpoint.
	Shooter  capture.Shooter
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server exposes the editor over JSON endpoints, plus an HTML preview,
// calendar download and PNG preview.
type Server struct {
	cfg     *config.Config
	deps    Deps
	engine  *gin.Engine
	cache   *cache.Cache
	preview *template.Template
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	ttl := cfg.CacheTTL()
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		engine:  gin.New(),
		cache:   cache.New(ttl, 2*ttl),
		preview: template.Must(template.ParseFS(assets, "assets/preview.html")),
	}
	s.engine.Use(requestLogger(), gin.Recovery())
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+cfg.Listen)
		s.engine.Use(s.basicAuth())
	}
	s.registerRoutes()
	return s
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.engine)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.GET("/templates", s.handleTemplates)
		api.GET("/templates/:weekday", s.handleTemplate)
		api.GET("/resolve", s.handleResolve)
		api.GET("/week", s.handleWeek)

		api.GET("/snapshot", s.handleSnapshot)
		api.GET("/snapshot.ics", s.handleSnapshotICS)
		api.POST("/snapshot/new", s.handleNew)
		api.POST("/snapshot/import", s.handleImport)
		api.POST("/snapshot/open", s.handleOpen)
		api.POST("/snapshot/date", s.handleSetDate)
		api.POST("/snapshot/groups", s.handleSetGroups)
		api.POST("/snapshot/sort", s.handleSort)
		api.POST("/snapshot/edit", s.handleEdit)
		api.POST("/snapshot/export", s.handleExport)
		api.POST("/snapshot/publish", s.handlePublish)

		api.GET("/template", s.handleTemplateCurrent)
		api.POST("/template/open", s.handleTemplateOpen)
		api.POST("/template/edit", s.handleTemplateEdit)
		api.POST("/template/export", s.handleTemplateExport)
	}

	s.engine.GET("/preview", s.handlePreview)
	s.engine.GET("/preview.png", s.handlePreviewPNG)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuth guards every route except /health.
func (s *Server) basicAuth() gin.HandlerFunc {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			c.Header("WWW-Authenticate", `Basic realm="schedsnap", charset="UTF-8"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		appLog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start).String(),
		)
	}
}

// selfURL is the address the headless browser uses to reach this server.
func (s *Server) selfURL(path string) string {
	host, port, err := net.SplitHostPort(s.cfg.Listen)
	if err != nil {
		host, port = "127.0.0.1", "8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: path}
	if s.basicAuthEnabled() {
		u.User = url.UserPassword(s.cfg.BasicAuth.Username, s.cfg.BasicAuth.Password)
	}
	return u.String()
}
