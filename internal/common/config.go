package common

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "1s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Watch   WatchConfig   `yaml:"watch"`
	Model   ModelConfig   `yaml:"model"`
	Extract ExtractConfig `yaml:"extract"`
	Rename  RenameConfig  `yaml:"rename"`
}

// AppConfig holds logging configuration.
type AppConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" | "json"
}

// WatchConfig holds watch-folder and stability configuration.
type WatchConfig struct {
	Path               string   `yaml:"path"`
	Extensions         []string `yaml:"extensions"`
	PollInterval       Duration `yaml:"poll_interval"`
	StabilityThreshold int      `yaml:"stability_threshold"` // consecutive unchanged polls
	StabilityTimeout   Duration `yaml:"stability_timeout"`
	Workers            int      `yaml:"workers"`
	StartupScan        bool     `yaml:"startup_scan"`
}

// ModelConfig holds inference endpoint configuration.
type ModelConfig struct {
	BaseURL        string   `yaml:"base_url"`
	Name           string   `yaml:"name"`
	Timeout        Duration `yaml:"timeout"`
	MaxAttempts    int      `yaml:"max_attempts"`
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
	BreakerEnabled bool     `yaml:"breaker_enabled"`
}

// ExtractConfig holds rasterization and image normalization configuration.
type ExtractConfig struct {
	PdftoppmPath string `yaml:"pdftoppm_path"`
	DPI          int    `yaml:"dpi"`
	MaxWidth     int    `yaml:"max_width"`
	JPEGQuality  int    `yaml:"jpeg_quality"`
}

// RenameConfig holds rename/collision configuration.
type RenameConfig struct {
	MaxCollisionAttempts int `yaml:"max_collision_attempts"`
	MaxNameLength        int `yaml:"max_name_length"`
}

// NewDefaultConfig returns a Config with every knob at its default.
// The watch path has no default and must come from file or flag.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Watch: WatchConfig{
			Extensions:         []string{"pdf", "jpg", "jpeg", "png"},
			PollInterval:       Duration(1 * time.Second),
			StabilityThreshold: 3,
			StabilityTimeout:   Duration(60 * time.Second),
			Workers:            1,
			StartupScan:        true,
		},
		Model: ModelConfig{
			BaseURL:        "http://localhost:11434",
			Name:           "qwen3-vl:32b",
			Timeout:        Duration(120 * time.Second),
			MaxAttempts:    4,
			InitialBackoff: Duration(2 * time.Second),
			MaxBackoff:     Duration(30 * time.Second),
		},
		Extract: ExtractConfig{
			PdftoppmPath: "pdftoppm",
			DPI:          200,
			MaxWidth:     1600,
			JPEGQuality:  85,
		},
		Rename: RenameConfig{
			MaxCollisionAttempts: 100,
			MaxNameLength:        200,
		},
	}
}

// Load reads a YAML config file with environment variable expansion into
// target, then validates it.
func Load(filename string, target *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("parse config file %s: %w", filename, err)
	}

	if err := target.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.Extract.Validate(); err != nil {
		return err
	}
	return c.Rename.Validate()
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
	)
}

func (c *WatchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extensions, validation.Required),
		validation.Field(&c.StabilityThreshold, validation.Required, validation.Min(1)),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.PollInterval.Std() < 100*time.Millisecond {
		return fmt.Errorf("watch.poll_interval must be at least 100ms, got %s", c.PollInterval.Std())
	}
	if c.StabilityTimeout.Std() < c.PollInterval.Std() {
		return fmt.Errorf("watch.stability_timeout must be at least one poll interval")
	}
	return nil
}

func (c *ModelConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	if c.Timeout.Std() <= 0 {
		return fmt.Errorf("model.timeout must be positive")
	}
	return nil
}

func (c *ExtractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PdftoppmPath, validation.Required),
		validation.Field(&c.DPI, validation.Required, validation.Min(72), validation.Max(600)),
		validation.Field(&c.MaxWidth, validation.Min(0)),
		validation.Field(&c.JPEGQuality, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

func (c *RenameConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxCollisionAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxNameLength, validation.Required, validation.Min(32)),
	)
}
