package glcore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/glcore/frame"
)

// ErrInvalidConfig is returned for configuration values out of range.
var ErrInvalidConfig = errors.New("glcore: invalid config")

// maxConfigSize bounds config files read by LoadConfig.
const maxConfigSize = 1 << 20

// Format is a configuration file format.
type Format string

// Supported configuration formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Duration is a time.Duration that reads and writes as text ("250ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds the renderer settings that can come from a file.
type Config struct {
	// UpdatesPerSecond is the fixed update rate of loops built by NewLoop.
	UpdatesPerSecond int `yaml:"updates_per_second" toml:"updates_per_second"`
	// MaxFrameTime clamps the time a loop accumulates per frame.
	MaxFrameTime Duration `yaml:"max_frame_time" toml:"max_frame_time"`
	// MaxTextureSize overrides the context limit when positive.
	MaxTextureSize int `yaml:"max_texture_size" toml:"max_texture_size"`
	// MemoryBudgetMB caps buffer and texture memory; zero means no cap.
	MemoryBudgetMB int `yaml:"memory_budget_mb" toml:"memory_budget_mb"`
	// CheckErrors queries the context error state after uploads and
	// commands.
	CheckErrors bool `yaml:"check_errors" toml:"check_errors"`
	// LogLevel is a slog level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		UpdatesPerSecond: frame.DefaultUpdatesPerSecond,
		MaxFrameTime:     Duration(frame.DefaultMaxFrameTime),
		CheckErrors:      true,
		LogLevel:         "info",
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	switch {
	case c.UpdatesPerSecond <= 0:
		return fmt.Errorf("%w: updates_per_second must be positive, got %d", ErrInvalidConfig, c.UpdatesPerSecond)
	case c.MaxFrameTime <= 0:
		return fmt.Errorf("%w: max_frame_time must be positive, got %v", ErrInvalidConfig, time.Duration(c.MaxFrameTime))
	case c.MaxTextureSize < 0:
		return fmt.Errorf("%w: max_texture_size is negative", ErrInvalidConfig)
	case c.MemoryBudgetMB < 0:
		return fmt.Errorf("%w: memory_budget_mb is negative", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel parses LogLevel. An empty level is Info.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// MemoryBudget returns the budget in bytes.
func (c Config) MemoryBudget() uint64 {
	// #nosec G115 -- Validate rejects negative values
	return uint64(c.MemoryBudgetMB) << 20
}

// DecodeConfig reads a configuration in the given format. Keys absent from
// the input keep their DefaultConfig values; unknown keys are an error.
func DecodeConfig(r io.Reader, format Format) (Config, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("glcore: decode yaml config: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("glcore: decode toml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a configuration file. The format follows the extension:
// .yaml or .yml for YAML, .toml for TOML.
func LoadConfig(path string) (Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return Config{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("glcore: load config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return Config{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrInvalidConfig, path, info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("glcore: load config: %w", err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data), format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	Logger().Info("glcore: loaded config", "path", path, "format", format)
	return cfg, nil
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: unsupported config file %q", ErrInvalidConfig, path)
}
