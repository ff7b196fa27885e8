package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartbud-dev/smartbud/internal/glossary"
	"github.com/smartbud-dev/smartbud/internal/summary"
)

// FileName is the default config file name.
const FileName = "smartbud.yaml"

// Config represents the top-level smartbud.yaml configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Categories CategoriesConfig `yaml:"categories"`
	Export     ExportConfig     `yaml:"export"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	MaxUploadMiB int    `yaml:"max_upload_mib"`
}

// ClassifierConfig points at the external classification service.
type ClassifierConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CategoriesConfig seeds the desired category list.
type CategoriesConfig struct {
	Desired []string `yaml:"desired"`
}

// ExportConfig names exported files.
type ExportConfig struct {
	GlossaryFile string `yaml:"glossary_file"`
	SumsFile     string `yaml:"sums_file"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultDesiredCategories is the category list offered before the user
// edits it.
var DefaultDesiredCategories = []string{
	"shopping",
	"food",
	"entertainment",
	"debit",
	"groceries",
	"utility",
	"tech services",
}

// Load reads a smartbud.yaml file from disk. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists, otherwise returns Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:   ":8080",
			MaxUploadMiB: 8,
		},
		Classifier: ClassifierConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		Categories: CategoriesConfig{
			Desired: append([]string{}, DefaultDesiredCategories...),
		},
		Export: ExportConfig{
			GlossaryFile: glossary.DefaultFileName,
			SumsFile:     summary.DefaultFileName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.ListenAddr == "" {
		problems = append(problems, "server.listen_addr must not be empty")
	}
	if c.Server.MaxUploadMiB < 1 {
		problems = append(problems, fmt.Sprintf("server.max_upload_mib %d: must be at least 1", c.Server.MaxUploadMiB))
	}

	if u, err := url.Parse(c.Classifier.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("classifier.base_url %q: %v", c.Classifier.BaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("classifier.base_url %q: scheme must be http or https", c.Classifier.BaseURL))
	}
	if c.Classifier.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("classifier.timeout %v: must be positive", c.Classifier.Timeout))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q: must be text or json", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q: must be debug, info, warn or error", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
