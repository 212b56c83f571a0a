package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrExportDirMissing is returned by Validate when no export directory is
// configured. The application cannot start without one.
var ErrExportDirMissing = errors.New("export directory is not configured (set EXPORT_DIRECTORY)")

// Bell maps a lesson slot to its clock times ("HH:MM").
type Bell struct {
	Num   int    `yaml:"num" json:"num"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Clock returns the bell's start and end as offsets from midnight.
func (b Bell) Clock() (start, end time.Duration, err error) {
	if start, err = parseClock(b.Start); err != nil {
		return 0, 0, fmt.Errorf("bell %d start: %w", b.Num, err)
	}
	if end, err = parseClock(b.End); err != nil {
		return 0, 0, fmt.Errorf("bell %d end: %w", b.Num, err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("bell %d ends before it starts", b.Num)
	}
	return start, end, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// AutoExportConfig controls the scheduled "tomorrow" export.
type AutoExportConfig struct {
	// Cron is a 5-field cron expression; empty disables the job.
	Cron string `yaml:"cron" json:"cron"`
	// Publish uploads the exported file after each run.
	Publish bool `yaml:"publish" json:"publish"`
}

// PublishConfig describes the S3-compatible storage exports are pushed to.
type PublishConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"-"`
	SecretKey string `yaml:"secret_key" json:"-"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
	Prefix    string `yaml:"prefix" json:"prefix"`
}

// Enabled reports whether enough is configured to attempt an upload.
func (p PublishConfig) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web front-end.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// ExportDirectory receives <uid>.json snapshots and <weekday>.json
	// templates. Required.
	ExportDirectory string `yaml:"export_directory" json:"export_directory"`

	// TemplateDirectory holds mon.json..sat.json. Empty means ExportDirectory;
	// see TemplateDir.
	TemplateDirectory string `yaml:"template_directory" json:"template_directory"`

	// TemplateURL, if set, is a base URL serving mon.json..sat.json.
	TemplateURL string `yaml:"template_url" json:"template_url"`

	// TemplateXLSX, if set, is a workbook with one template lesson per row.
	TemplateXLSX string `yaml:"template_xlsx" json:"template_xlsx"`

	// Timezone is the IANA zone used to decide "today" (e.g. "Europe/Moscow").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Listen is the HTTP listen address for the web front-end.
	Listen string `yaml:"listen" json:"listen"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// Bells is the daily bell schedule used for calendar export.
	Bells []Bell `yaml:"bells" json:"bells"`

	AutoExport AutoExportConfig `yaml:"auto_export" json:"auto_export"`
	Publish    PublishConfig    `yaml:"publish" json:"publish"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// CacheTTLSeconds bounds how long resolved snapshots are cached by the
	// web front-end.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`
}

func defaultBells() []Bell {
	return []Bell{
		{Num: 1, Start: "08:30", End: "10:00"},
		{Num: 2, Start: "10:10", End: "11:40"},
		{Num: 3, Start: "12:10", End: "13:40"},
		{Num: 4, Start: "13:50", End: "15:20"},
		{Num: 5, Start: "15:30", End: "17:00"},
		{Num: 6, Start: "17:10", End: "18:40"},
	}
}

// DefaultConfig returns an in-memory default configuration. The export
// directory is deliberately empty; it has to be provided.
func DefaultConfig() *Config {
	return &Config{
		Timezone:        "Europe/Moscow",
		Listen:          "127.0.0.1:8080",
		LogLevel:        "info",
		Bells:           defaultBells(),
		CacheTTLSeconds: 300,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	c.ExportDirectory = strings.TrimSpace(c.ExportDirectory)
	c.TemplateDirectory = strings.TrimSpace(c.TemplateDirectory)
	if c.Timezone == "" {
		c.Timezone = "Europe/Moscow"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Bells == nil {
		c.Bells = defaultBells()
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 300
	}
	c.Publish.Prefix = strings.Trim(c.Publish.Prefix, "/")
}

// Validate reports configuration problems that must stop startup.
func (c *Config) Validate() error {
	if c.ExportDirectory == "" {
		return ErrExportDirMissing
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	seen := make(map[int]bool, len(c.Bells))
	for _, b := range c.Bells {
		if seen[b.Num] {
			return fmt.Errorf("bell %d is listed twice", b.Num)
		}
		seen[b.Num] = true
		if _, _, err := b.Clock(); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TemplateDir is where weekday templates are loaded from. An empty
// TemplateDirectory follows ExportDirectory, including env overrides.
func (c *Config) TemplateDir() string {
	if c.TemplateDirectory != "" {
		return c.TemplateDirectory
	}
	return c.ExportDirectory
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, it is unmarshalled and normalized.
//
// Environment overrides are not applied here; see ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays environment variables on top of the file values.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"EXPORT_DIRECTORY":   &c.ExportDirectory,
		"TEMPLATE_DIRECTORY": &c.TemplateDirectory,
		"TEMPLATE_URL":       &c.TemplateURL,
		"TEMPLATE_XLSX":      &c.TemplateXLSX,
		"TIMEZONE":           &c.Timezone,
		"LISTEN":             &c.Listen,
		"LOG_LEVEL":          &c.LogLevel,
		"AUTO_EXPORT_CRON":   &c.AutoExport.Cron,
		"MINIO_ENDPOINT":     &c.Publish.Endpoint,
		"MINIO_ACCESS_KEY":   &c.Publish.AccessKey,
		"MINIO_SECRET_KEY":   &c.Publish.SecretKey,
		"MINIO_BUCKET":       &c.Publish.Bucket,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("MINIO_USE_SSL"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		c.Publish.UseSSL = b
	}
	c.Normalize()
	return nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedsnap-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
