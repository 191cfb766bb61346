// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix is prepended to every environment override, e.g.
// UIDIFFER_DATABASE_URL for database.url.
const EnvPrefix = "UIDIFFER"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Browser() BrowserConfig
	Design() DesignConfig
	Matcher() MatcherConfig
	Pipeline() PipelineConfig
	Batch() BatchConfig
	Server() ServerConfig
	Report() ReportConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserViewport(width, height int64)

	// Pipeline Setters
	SetPipelineDumpDir(string)

	// Report Setters
	SetReportFormat(string)
	SetReportOutput(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	DesignCfg   DesignConfig   `mapstructure:"design" yaml:"design"`
	MatcherCfg  MatcherConfig  `mapstructure:"matcher" yaml:"matcher"`
	PipelineCfg PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	BatchCfg    BatchConfig    `mapstructure:"batch" yaml:"batch"`
	ServerCfg   ServerConfig   `mapstructure:"server" yaml:"server"`
	ReportCfg   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Design() DesignConfig     { return c.DesignCfg }
func (c *Config) Matcher() MatcherConfig   { return c.MatcherCfg }
func (c *Config) Pipeline() PipelineConfig { return c.PipelineCfg }
func (c *Config) Batch() BatchConfig       { return c.BatchCfg }
func (c *Config) Server() ServerConfig     { return c.ServerCfg }
func (c *Config) Report() ReportConfig     { return c.ReportCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserViewport(width, height int64) {
	if width > 0 {
		c.BrowserCfg.Viewport.Width = width
	}
	if height > 0 {
		c.BrowserCfg.Viewport.Height = height
	}
}
func (c *Config) SetPipelineDumpDir(dir string) { c.PipelineCfg.DumpDir = dir }
func (c *Config) SetReportFormat(f string)      { c.ReportCfg.Format = f }
func (c *Config) SetReportOutput(o string)      { c.ReportCfg.Output = o }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// ViewportConfig is the emulated device used for captures.
type ViewportConfig struct {
	Width             int64   `mapstructure:"width" yaml:"width"`
	Height            int64   `mapstructure:"height" yaml:"height"`
	DeviceScaleFactor float64 `mapstructure:"device_scale_factor" yaml:"device_scale_factor"`
	Mobile            bool    `mapstructure:"mobile" yaml:"mobile"`
}

// BrowserConfig holds settings for the headless browser used for capture.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	DisableGPU        bool           `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	UserAgent         string         `mapstructure:"user_agent" yaml:"user_agent"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	SettleWait        time.Duration  `mapstructure:"settle_wait" yaml:"settle_wait"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// SafeAreaConfig describes the header and footer bands excluded from the
// design tree, in design units.
type SafeAreaConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	HeaderHeight float64 `mapstructure:"header_height" yaml:"header_height"`
	FooterHeight float64 `mapstructure:"footer_height" yaml:"footer_height"`
	ScreenHeight float64 `mapstructure:"screen_height" yaml:"screen_height"`
}

// DesignConfig controls how design units map to DOM pixels.
type DesignConfig struct {
	UnitBase float64        `mapstructure:"unit_base" yaml:"unit_base"`
	RemBase  float64        `mapstructure:"rem_base" yaml:"rem_base"`
	SafeArea SafeAreaConfig `mapstructure:"safe_area" yaml:"safe_area"`
}

// MatcherConfig tunes the cross-tree matcher.
type MatcherConfig struct {
	CenterDistanceScale float64 `mapstructure:"center_distance_scale" yaml:"center_distance_scale"`
	MinScore            float64 `mapstructure:"min_score" yaml:"min_score"`
}

// PipelineConfig holds settings for the comparison pipeline.
type PipelineConfig struct {
	// DumpDir, when set, receives a msgpack snapshot of every stage output.
	DumpDir string `mapstructure:"dump_dir" yaml:"dump_dir"`
}

// BatchConfig bounds manifest-driven batch runs.
type BatchConfig struct {
	Concurrency   int     `mapstructure:"concurrency" yaml:"concurrency"`
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// ReportConfig selects the default report writer.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// ReportFormats lists the accepted values of report.format.
var ReportFormats = []string{"text", "json", "sarif", "junit"}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ui-differ")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.viewport.width", 375)
	v.SetDefault("browser.viewport.height", 812)
	v.SetDefault("browser.viewport.device_scale_factor", 2.0)
	v.SetDefault("browser.viewport.mobile", true)
	v.SetDefault("browser.settle_wait", "500ms")
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Design --
	v.SetDefault("design.unit_base", 750.0)
	v.SetDefault("design.rem_base", 37.5)
	v.SetDefault("design.safe_area.enabled", true)
	v.SetDefault("design.safe_area.header_height", 88.0)
	v.SetDefault("design.safe_area.footer_height", 68.0)
	v.SetDefault("design.safe_area.screen_height", 0.0)

	// -- Matcher --
	v.SetDefault("matcher.center_distance_scale", 50.0)
	v.SetDefault("matcher.min_score", 0.3)

	// -- Batch --
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.rate_per_second", 2.0)
	v.SetDefault("batch.burst", 1)

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8087")
	v.SetDefault("server.request_timeout", "2m")
	v.SetDefault("server.max_body_bytes", 32<<20)

	// -- Report --
	v.SetDefault("report.format", "text")
	v.SetDefault("report.output", "")
}

// BindEnv wires UIDIFFER_* environment overrides into v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only consults keys viper already knows about.
	_ = v.BindEnv("database.url")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	BindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ExpandPath resolves a leading ~ in p.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	out, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expanding path %q: %w", p, err)
	}
	return out, nil
}

func (c *Config) expandPaths() error {
	var err error
	for _, p := range []*string{&c.LoggerCfg.LogFile, &c.PipelineCfg.DumpDir, &c.ReportCfg.Output} {
		expanded, e := ExpandPath(*p)
		if e != nil {
			err = multierr.Append(err, e)
			continue
		}
		*p = expanded
	}
	return err
}

// Validate checks the configuration for required fields and sane values.
// Every violation is reported, not just the first.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.BrowserCfg.Validate(),
		c.DesignCfg.Validate(),
		c.MatcherCfg.Validate(),
		c.BatchCfg.Validate(),
		c.ServerCfg.Validate(),
		c.ReportCfg.Validate(),
	)
}

// Validate checks the browser configuration.
func (b *BrowserConfig) Validate() error {
	var err error
	if b.Viewport.Width <= 0 || b.Viewport.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("browser.viewport width and height must be positive"))
	}
	if b.Viewport.DeviceScaleFactor < 0 {
		err = multierr.Append(err, fmt.Errorf("browser.viewport.device_scale_factor must not be negative"))
	}
	if b.NavigationTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("browser.navigation_timeout must be a positive duration"))
	}
	if b.SettleWait < 0 {
		err = multierr.Append(err, fmt.Errorf("browser.settle_wait must not be negative"))
	}
	return err
}

// Validate checks the design conversion settings.
func (d *DesignConfig) Validate() error {
	var err error
	if d.UnitBase <= 0 {
		err = multierr.Append(err, fmt.Errorf("design.unit_base must be positive"))
	}
	if d.RemBase <= 0 {
		err = multierr.Append(err, fmt.Errorf("design.rem_base must be positive"))
	}
	if d.SafeArea.HeaderHeight < 0 || d.SafeArea.FooterHeight < 0 || d.SafeArea.ScreenHeight < 0 {
		err = multierr.Append(err, fmt.Errorf("design.safe_area heights must not be negative"))
	}
	return err
}

// Validate checks the matcher thresholds.
func (m *MatcherConfig) Validate() error {
	var err error
	if m.CenterDistanceScale <= 0 {
		err = multierr.Append(err, fmt.Errorf("matcher.center_distance_scale must be positive"))
	}
	if m.MinScore < 0 || m.MinScore > 1 {
		err = multierr.Append(err, fmt.Errorf("matcher.min_score must be between 0.0 and 1.0"))
	}
	return err
}

// Validate checks the batch settings.
func (b *BatchConfig) Validate() error {
	var err error
	if b.Concurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("batch.concurrency must be a positive integer"))
	}
	if b.RatePerSecond < 0 {
		err = multierr.Append(err, fmt.Errorf("batch.rate_per_second must not be negative"))
	}
	if b.RatePerSecond > 0 && b.Burst <= 0 {
		err = multierr.Append(err, fmt.Errorf("batch.burst must be positive when a rate is set"))
	}
	return err
}

// Validate checks the HTTP server settings.
func (s *ServerConfig) Validate() error {
	var err error
	if s.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("server.addr is required"))
	}
	if s.RequestTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.request_timeout must be a positive duration"))
	}
	if s.MaxBodyBytes <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.max_body_bytes must be positive"))
	}
	return err
}

// Validate checks the report settings.
func (r *ReportConfig) Validate() error {
	for _, f := range ReportFormats {
		if r.Format == f {
			return nil
		}
	}
	return fmt.Errorf("report.format %q is not one of %s", r.Format, strings.Join(ReportFormats, ", "))
}
