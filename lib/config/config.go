// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/parc/lib/encoder"
	"github.com/bureau-foundation/parc/lib/sealed"
)

// EnvironmentVariable names the variable Load reads.
const EnvironmentVariable = "PARC_CONFIG"

// Config holds the settings shared by the parc subcommands.
type Config struct {
	// Threads is the worker count, or "auto".
	Threads ThreadCount `yaml:"threads"`

	// Method is the compression method name (zstd, lz4, bg4_lz4, s2,
	// deflate, store).
	Method string `yaml:"method"`

	// Level is the codec level. 0 selects the codec default.
	Level int `yaml:"level"`

	// LookAhead is the prefetch horizon. 0 selects twice the worker
	// count.
	LookAhead int `yaml:"look_ahead"`

	// MaxJobSize bounds a single input ("512MiB", "2GB", or a byte
	// count). 0 means unlimited.
	MaxJobSize ByteSize `yaml:"max_job_size"`

	// Recipients are age public keys. When set, created archives are
	// sealed to them.
	Recipients []string `yaml:"recipients"`

	// Identity is the age identity file used to open sealed archives.
	Identity string `yaml:"identity"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Threads:  ThreadsAuto,
		Method:   encoder.MethodZstd.String(),
		LogLevel: "info",
	}
}

// Load loads configuration from the file named by PARC_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your parc.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path on top of Default and
// validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of Default and validates
// it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are
// reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Threads != ThreadsAuto && c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be auto or a positive number, got %d", int(c.Threads)))
	}
	if _, err := encoder.ParseMethod(c.Method); err != nil {
		errs = append(errs, fmt.Errorf("method: %w", err))
	}
	if c.Level < 0 {
		errs = append(errs, fmt.Errorf("level must not be negative, got %d", c.Level))
	}
	if c.LookAhead < 0 {
		errs = append(errs, fmt.Errorf("look_ahead must not be negative, got %d", c.LookAhead))
	}
	if c.MaxJobSize < 0 {
		errs = append(errs, fmt.Errorf("max_job_size must not be negative, got %d", int64(c.MaxJobSize)))
	}
	for _, recipient := range c.Recipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			errs = append(errs, fmt.Errorf("recipients: %w", err))
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel returns LogLevel as a slog.Level. Call after Validate.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}

// ParseLogLevel parses debug, info, warn, or error.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", name)
	}
}

// ThreadsAuto is the ThreadCount meaning one worker per CPU. It has
// the same value as archive.ThreadsAuto.
const ThreadsAuto ThreadCount = -1

// ThreadCount is a worker count that may be written as "auto".
type ThreadCount int

// ParseThreadCount parses "auto" or a decimal count.
func ParseThreadCount(text string) (ThreadCount, error) {
	if strings.EqualFold(text, "auto") {
		return ThreadsAuto, nil
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("thread count must be auto or a number, got %q", text)
	}
	return ThreadCount(count), nil
}

// String returns "auto" or the decimal count.
func (t ThreadCount) String() string {
	if t == ThreadsAuto {
		return "auto"
	}
	return strconv.Itoa(int(t))
}

// UnmarshalYAML accepts "auto" or an integer.
func (t *ThreadCount) UnmarshalYAML(node *yaml.Node) error {
	count, err := ParseThreadCount(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = count
	return nil
}

// MarshalYAML writes "auto" or the count.
func (t ThreadCount) MarshalYAML() (any, error) {
	if t == ThreadsAuto {
		return "auto", nil
	}
	return int(t), nil
}

// ByteSize is a byte count that may be written with a unit suffix.
type ByteSize int64

// ParseByteSize parses "1048576", "1MiB", "64 MB", and similar.
func ParseByteSize(text string) (ByteSize, error) {
	size, err := humanize.ParseBytes(text)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", text, err)
	}
	if size > 1<<62 {
		return 0, fmt.Errorf("byte size %q is too large", text)
	}
	return ByteSize(size), nil
}

// String formats the size with an IEC unit.
func (b ByteSize) String() string {
	if b < 0 {
		return strconv.FormatInt(int64(b), 10)
	}
	return humanize.IBytes(uint64(b))
}

// UnmarshalYAML accepts an integer or a string with a unit.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		value, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*b = ByteSize(value)
		return nil
	}
	size, err := ParseByteSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = size
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Identity = expandVars(c.Identity)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
