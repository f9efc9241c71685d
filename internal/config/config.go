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

	"karolbroda.com/duet/internal/layout"
	"karolbroda.com/duet/internal/mode"
)

const (
	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	DefaultLrclibGetURL = "https://lrclib.net/api/get"
	HTTPTimeoutSeconds  = 10
	PollInterval        = 100 * time.Millisecond
)

type LayoutConfig struct {
	Strategy    string  `yaml:"strategy"`
	BaseGap     float64 `yaml:"base_gap"`
	Tolerance   float64 `yaml:"tolerance"`
	FadeMS      int     `yaml:"fade_ms"`
	IndicatorMS int     `yaml:"indicator_ms"`
}

type Config struct {
	MprisService string       `yaml:"mpris_service"`
	LrclibURL    string       `yaml:"lrclib_url"`
	SyncOffset   float64      `yaml:"sync_offset"`
	HideHeader   bool         `yaml:"hide_header"`
	CacheDir     string       `yaml:"cache_dir"`
	SettingsPath string       `yaml:"settings"`
	LogFile      string       `yaml:"log_file"`
	LogLevel     string       `yaml:"log_level"`
	Layout       LayoutConfig `yaml:"layout"`

	// Path is the yaml file the values were read from, empty when none was.
	Path string `yaml:"-"`
}

func defaultConfig() *Config {
	return &Config{
		MprisService: DefaultMprisService,
		LrclibURL:    DefaultLrclibGetURL,
		LogLevel:     "info",
		Layout: LayoutConfig{
			Strategy:    layout.Cascade.String(),
			BaseGap:     layout.DefaultBaseGap,
			Tolerance:   layout.DefaultTolerance,
			FadeMS:      int(layout.DefaultFade / time.Millisecond),
			IndicatorMS: int(mode.DefaultIndicatorTTL / time.Millisecond),
		},
	}
}

// Load builds the configuration from defaults, then the yaml file named by
// DUET_CONFIG (or the default location), then the environment. A .env file in
// the working directory is read first and never overrides real variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := defaultConfig()

	path := os.Getenv("DUET_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.overlayFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.overlayEnv()
	cfg.normalize()
	return cfg, nil
}

// DefaultPath is $XDG_CONFIG_HOME/duet/config.yaml, falling back to ~/.config.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "duet", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "duet", "config.yaml")
}

func (c *Config) overlayFile(path string, required bool) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	c.Path = path
	return nil
}

func (c *Config) overlayEnv() {
	c.MprisService = getEnvOrDefault("MPRIS_SERVICE", c.MprisService)
	c.LrclibURL = getEnvOrDefault("LRCLIB_GET_URL", c.LrclibURL)
	c.CacheDir = getEnvOrDefault("DUET_CACHE_DIR", c.CacheDir)
	c.SettingsPath = getEnvOrDefault("DUET_SETTINGS", c.SettingsPath)
	c.LogFile = getEnvOrDefault("DUET_LOG_FILE", c.LogFile)
	c.LogLevel = getEnvOrDefault("DUET_LOG_LEVEL", c.LogLevel)
	c.Layout.Strategy = getEnvOrDefault("DUET_LAYOUT", c.Layout.Strategy)

	if raw := os.Getenv("SYNC_OFFSET"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			c.SyncOffset = v
		}
	}
	if raw := os.Getenv("HIDE_HEADER"); raw != "" {
		c.HideHeader = parseBool(raw)
	}
}

func (c *Config) normalize() {
	def := defaultConfig()

	c.Layout.Strategy = layout.ParseStrategy(c.Layout.Strategy).String()
	if c.Layout.BaseGap < 0 {
		c.Layout.BaseGap = def.Layout.BaseGap
	}
	if c.Layout.Tolerance < 0 {
		c.Layout.Tolerance = def.Layout.Tolerance
	}
	if c.Layout.FadeMS <= 0 {
		c.Layout.FadeMS = def.Layout.FadeMS
	}
	if c.Layout.IndicatorMS <= 0 {
		c.Layout.IndicatorMS = def.Layout.IndicatorMS
	}
	if c.MprisService == "" {
		c.MprisService = def.MprisService
	}
	if c.LrclibURL == "" {
		c.LrclibURL = def.LrclibURL
	}
}

// LayoutEngine converts the layout section for the layout engine.
func (c *Config) LayoutEngine() layout.Config {
	cfg := layout.DefaultConfig()
	cfg.Strategy = layout.ParseStrategy(c.Layout.Strategy)
	cfg.BaseGap = c.Layout.BaseGap
	cfg.Tolerance = c.Layout.Tolerance
	cfg.Fade = time.Duration(c.Layout.FadeMS) * time.Millisecond
	return cfg
}

func (c *Config) IndicatorTTL() time.Duration {
	return time.Duration(c.Layout.IndicatorMS) * time.Millisecond
}

func getEnvOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
