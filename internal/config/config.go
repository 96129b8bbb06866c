package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigRelPath = ".botapigen/config.yaml"
	defaultStoreRelPath  = ".botapigen/botapigen.db"
)

var (
	formats   = []string{"typescript", "json", "markdown", "openapi"}
	logLevels = []string{"debug", "info", "warn", "error"}
)

type SourceConfig struct {
	URL            string `yaml:"url"`
	BaseURL        string `yaml:"base_url"`
	ContentID      string `yaml:"content_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// LinkBase is the URL relative links in the reference resolve against.
func (s SourceConfig) LinkBase() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.URL
}

type InputConfig struct {
	HTML      string `yaml:"html"`
	Catalogue string `yaml:"catalogue"`
}

type OutputConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`
	ClassName string `yaml:"class_name"`
}

type PipelineConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// FilterConfig selects catalogue entries by name pattern.
type FilterConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Filter   FilterConfig   `yaml:"filter"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, defaultConfigRelPath), nil
}

// Load loads YAML config, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	return cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Source.URL == "" {
		c.Source.URL = "https://core.telegram.org/bots/api"
	}
	if c.Source.ContentID == "" {
		c.Source.ContentID = "dev_page_content"
	}
	if c.Source.TimeoutSeconds == 0 {
		c.Source.TimeoutSeconds = 60
	}
	if c.Source.MaxRetries == 0 {
		c.Source.MaxRetries = 3
	}
	if c.Output.Format == "" {
		c.Output.Format = "typescript"
	}
	if c.Output.ClassName == "" {
		c.Output.ClassName = "AbstractApi"
	}
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = 8
	}
	if c.Store.Path == "" {
		c.Store.Path = "~/" + defaultStoreRelPath
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if !contains(formats, c.Output.Format) {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(formats, ", "), c.Output.Format)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	base, err := url.Parse(c.Source.LinkBase())
	if err != nil || !base.IsAbs() {
		return fmt.Errorf("source.base_url must be an absolute URL, got %q", c.Source.LinkBase())
	}
	if !contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %s, got %q", strings.Join(logLevels, ", "), c.Log.Level)
	}
	if c.Source.TimeoutSeconds < 0 || c.Source.MaxRetries < 0 {
		return errors.New("source.timeout_seconds and source.max_retries cannot be negative")
	}
	return nil
}

// ValidateStore checks that the database directory can be written.
func (c *Config) ValidateStore() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path cannot be empty")
	}
	if err := ensureWritableDir(filepath.Dir(c.Store.Path)); err != nil {
		return fmt.Errorf("store.path not writable: %w", err)
	}
	return nil
}

// ValidateOutput checks that the output file's directory can be written.
// An empty output.path means stdout.
func (c *Config) ValidateOutput() error {
	if c.Output.Path == "" {
		return nil
	}
	if err := ensureWritableDir(filepath.Dir(c.Output.Path)); err != nil {
		return fmt.Errorf("output.path not writable: %w", err)
	}
	return nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func applyEnvOverrides(c *Config) {
	setString(&c.Source.URL, "BOTAPIGEN_SOURCE_URL")
	setString(&c.Source.BaseURL, "BOTAPIGEN_SOURCE_BASE_URL")
	setString(&c.Input.HTML, "BOTAPIGEN_INPUT_HTML")
	setString(&c.Input.Catalogue, "BOTAPIGEN_INPUT_CATALOGUE")
	setString(&c.Output.Path, "BOTAPIGEN_OUTPUT_PATH")
	setString(&c.Output.Format, "BOTAPIGEN_OUTPUT_FORMAT")
	setInt(&c.Pipeline.Concurrency, "BOTAPIGEN_PIPELINE_CONCURRENCY")
	setString(&c.Store.Path, "BOTAPIGEN_STORE_PATH")
	setString(&c.Server.Host, "BOTAPIGEN_SERVER_HOST")
	setInt(&c.Server.Port, "BOTAPIGEN_SERVER_PORT")
	setString(&c.Log.Level, "BOTAPIGEN_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
