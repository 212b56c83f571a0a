package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"schedsnap/internal/autoexport"
	"schedsnap/internal/calendar"
	"schedsnap/internal/capture"
	"schedsnap/internal/config"
	"schedsnap/internal/editor"
	appLog "schedsnap/internal/log"
	"schedsnap/internal/model"
	"schedsnap/internal/publish"
	"schedsnap/internal/resolve"
	"schedsnap/internal/store"
	"schedsnap/internal/templates"
	"schedsnap/internal/web"
)

type flagConfig struct {
	configPath    string
	envFile       string
	listen        string
	once          bool
	day           string
	ics           bool
	publish       bool
	dumpTemplates bool
	debug         bool
}

func main() {
	appLog.Info("schedsnap starting", "version", "0.1.0")

	flags := parseFlags()

	if err := config.LoadDotEnv(flags.envFile); err != nil {
		appLog.Warn("failed to read env file", "path", flags.envFile, "err", err)
	}
	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(); err != nil {
		appLog.Error("invalid environment", err)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	level, ok := appLog.ParseLevel(conf.LogLevel)
	if !ok {
		appLog.Warn("unknown log level; using INFO", "log_level", conf.LogLevel)
	}
	appLog.SetLevel(level)

	if err := conf.Validate(); err != nil {
		if errors.Is(err, config.ErrExportDirMissing) {
			appLog.Error("export directory is required", err)
		} else {
			appLog.Error("invalid config", err, "config_path", flags.configPath)
		}
		os.Exit(1)
	}
	loc, _ := conf.Location()
	bells, _ := calendar.BellsFrom(conf.Bells)

	appLog.Info("effective config",
		"export_directory", conf.ExportDirectory,
		"template_directory", conf.TemplateDir(),
		"template_url_set", conf.TemplateURL != "",
		"template_xlsx", conf.TemplateXLSX,
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"bells", len(conf.Bells),
		"auto_export", conf.AutoExport.Cron,
		"publish_enabled", conf.Publish.Enabled(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	set := loadTemplates(ctx, conf)
	exporter := store.NewExporter(conf.ExportDirectory)

	var publisher editor.Publisher
	if p, err := publish.New(conf.Publish); err == nil {
		publisher = p
	} else if !errors.Is(err, publish.ErrDisabled) {
		appLog.Error("publisher unavailable", err, "endpoint", conf.Publish.Endpoint)
	}

	switch {
	case flags.dumpTemplates:
		os.Exit(dumpTemplates(set, exporter))
	case flags.day != "":
		os.Exit(exportDay(ctx, flags, set, exporter, bells, loc, publisher))
	case flags.once:
		job := &autoexport.Job{
			Templates: set, Exporter: exporter, Bells: bells, Location: loc,
			Publisher: publisher, Publish: flags.publish || conf.AutoExport.Publish,
		}
		if _, err := job.Run(ctx); err != nil {
			appLog.Error("export failed", err)
			os.Exit(1)
		}
		return
	}

	ed := editor.New(editor.Options{
		Templates: set,
		Exporter:  exporter,
		Bells:     bells,
		Location:  loc,
		Publisher: publisher,
	})

	if conf.AutoExport.Cron != "" {
		sched, err := autoexport.Schedule(conf.AutoExport.Cron, &autoexport.Job{
			Templates: set, Exporter: exporter, Bells: bells, Location: loc,
			Publisher: publisher, Publish: conf.AutoExport.Publish,
		}, loc)
		if err != nil {
			appLog.Error("auto export disabled", err)
		} else {
			sched.Start()
			defer func() { <-sched.Stop().Done() }()
		}
	}

	if !flags.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := web.NewServer(conf, web.Deps{
		Editor:    ed,
		Templates: set,
		Exporter:  exporter,
		Shooter:   capture.Chromium{},
		Location:  loc,
	})
	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	appLog.Info("schedsnap exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env", ".env", "Path to an optional KEY=VALUE env file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Resolve tomorrow's template, export it and exit")
	flag.StringVar(&cfg.day, "day", "", "Resolve a weekday (mon..sat), today or tomorrow, export it and exit")
	flag.BoolVar(&cfg.ics, "ics", false, "With -day: also write <uid>.ics")
	flag.BoolVar(&cfg.publish, "publish", false, "With -day/-once: upload the exported files")
	flag.BoolVar(&cfg.dumpTemplates, "dump-templates", false, "Write every loaded template to the export directory and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and gin debug mode")

	flag.Parse()

	return cfg
}

// loadTemplates layers directory, workbook and remote templates; later
// sources win per weekday.
func loadTemplates(ctx context.Context, conf *config.Config) *templates.Set {
	sets := []*templates.Set{templates.LoadDir(conf.TemplateDir())}
	if conf.TemplateXLSX != "" {
		sets = append(sets, templates.LoadXLSX(conf.TemplateXLSX))
	}
	if conf.TemplateURL != "" {
		f := templates.NewFetcher(filepath.Join(conf.ExportDirectory, ".template-cache"))
		sets = append(sets, f.LoadRemote(ctx, conf.TemplateURL))
	}
	set := templates.Merge(sets...)
	appLog.Info("templates ready", "days", set.Len())
	return set
}

func dumpTemplates(set *templates.Set, exporter *store.Exporter) int {
	code := 0
	for _, d := range set.Days() {
		if _, err := exporter.ExportTemplate(d); err != nil {
			appLog.Error("template export failed", err, "weekday", d.Day.String())
			code = 1
		}
	}
	return code
}

func exportDay(ctx context.Context, flags flagConfig, set *templates.Set, exporter *store.Exporter, bells calendar.Bells, loc *time.Location, publisher editor.Publisher) int {
	ed := editor.New(editor.Options{
		Templates: set,
		Exporter:  exporter,
		Bells:     bells,
		Location:  loc,
		Publisher: publisher,
	})

	var err error
	if intent, perr := resolve.ParseIntent(flags.day); perr == nil {
		_, err = ed.ImportIntent(intent)
	} else if w, werr := model.ParseWeekday(flags.day); werr == nil {
		_, err = ed.ImportTemplate(w)
	} else {
		appLog.Error("invalid -day value", werr, "day", flags.day)
		return 2
	}
	if err != nil {
		appLog.Error("import failed", err, "day", flags.day)
		return 1
	}

	out, err := ed.Export(flags.ics)
	if err != nil {
		appLog.Error("export failed", err)
		return 1
	}
	appLog.Info("snapshot exported", "uid", out.UID.String(), "path", out.Path, "ics", out.ICS)
	if flags.publish {
		if _, err := ed.Publish(ctx); err != nil {
			appLog.Error("publish failed", err)
			return 1
		}
	}
	return 0
}
