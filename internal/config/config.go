// Package config loads the dashboard configuration from JSON. Every field is
// optional: unset fields fall back to the defaults returned by the Get*
// methods, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/tactile.defaults.json"

// Defaults.
const (
	DefaultPort           = "/dev/ttyUSB0"
	DefaultBaudRate       = 115200
	DefaultDataBits       = 8
	DefaultStopBits       = 1
	DefaultParity         = "N"
	DefaultReadTimeout    = time.Second
	DefaultRows           = 16
	DefaultCols           = 4
	DefaultRefreshPeriod  = 100 * time.Millisecond
	DefaultDisplayMin     = 0
	DefaultDisplayMax     = 30000
	DefaultAcquisition    = "background"
	DefaultInitialBackoff = 100 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultListen         = ":8080"
	DefaultTUI            = "auto"
	DefaultLogFile        = "tactile.log"
)

const maxConfigFileSize int64 = 1 * 1024 * 1024 // 1MB

// Config represents the root configuration of the dashboard.
type Config struct {
	// Serial device
	Port        *string `json:"port,omitempty"`
	BaudRate    *int    `json:"baud_rate,omitempty"`
	DataBits    *int    `json:"data_bits,omitempty"`
	StopBits    *int    `json:"stop_bits,omitempty"`
	Parity      *string `json:"parity,omitempty"`
	ReadTimeout *string `json:"read_timeout,omitempty"` // duration string like "1s"

	// Sensor layout and display
	Rows          *int    `json:"rows,omitempty"`
	Cols          *int    `json:"cols,omitempty"`
	RefreshPeriod *string `json:"refresh_period,omitempty"` // duration string like "100ms"
	DisplayMin    *int    `json:"display_min,omitempty"`
	DisplayMax    *int    `json:"display_max,omitempty"`

	// Acquisition
	Acquisition       *string `json:"acquisition,omitempty"` // "background" or "inline"
	CountDistinctRows *bool   `json:"count_distinct_rows,omitempty"`
	MaxRetries        *int    `json:"max_retries,omitempty"` // 0 retries forever
	InitialBackoff    *string `json:"initial_backoff,omitempty"`
	MaxBackoff        *string `json:"max_backoff,omitempty"`

	// Front ends
	Listen  *string `json:"listen,omitempty"` // empty disables the web server
	TUI     *string `json:"tui,omitempty"`    // "auto", "on" or "off"
	LogFile *string `json:"log_file,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		Port:              ptrString(DefaultPort),
		BaudRate:          ptrInt(DefaultBaudRate),
		DataBits:          ptrInt(DefaultDataBits),
		StopBits:          ptrInt(DefaultStopBits),
		Parity:            ptrString(DefaultParity),
		ReadTimeout:       ptrString(DefaultReadTimeout.String()),
		Rows:              ptrInt(DefaultRows),
		Cols:              ptrInt(DefaultCols),
		RefreshPeriod:     ptrString(DefaultRefreshPeriod.String()),
		DisplayMin:        ptrInt(DefaultDisplayMin),
		DisplayMax:        ptrInt(DefaultDisplayMax),
		Acquisition:       ptrString(DefaultAcquisition),
		CountDistinctRows: ptrBool(false),
		MaxRetries:        ptrInt(0),
		InitialBackoff:    ptrString(DefaultInitialBackoff.String()),
		MaxBackoff:        ptrString(DefaultMaxBackoff.String()),
		Listen:            ptrString(DefaultListen),
		TUI:               ptrString(DefaultTUI),
		LogFile:           ptrString(DefaultLogFile),
	}
}

// Load loads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func validateDuration(name string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	for name, v := range map[string]*string{
		"read_timeout":    c.ReadTimeout,
		"refresh_period":  c.RefreshPeriod,
		"initial_backoff": c.InitialBackoff,
		"max_backoff":     c.MaxBackoff,
	} {
		if err := validateDuration(name, v); err != nil {
			return err
		}
	}

	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	if c.Rows != nil && *c.Rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", *c.Rows)
	}
	if c.Cols != nil && *c.Cols <= 0 {
		return fmt.Errorf("cols must be positive, got %d", *c.Cols)
	}
	if c.GetDisplayMax() <= c.GetDisplayMin() {
		return fmt.Errorf("display_max (%d) must be greater than display_min (%d)", c.GetDisplayMax(), c.GetDisplayMin())
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", *c.MaxRetries)
	}
	if c.GetMaxBackoff() < c.GetInitialBackoff() {
		return fmt.Errorf("max_backoff (%v) must not be less than initial_backoff (%v)", c.GetMaxBackoff(), c.GetInitialBackoff())
	}

	switch c.GetAcquisition() {
	case "background", "inline":
	default:
		return fmt.Errorf("acquisition must be \"background\" or \"inline\", got %q", c.GetAcquisition())
	}
	switch c.GetTUI() {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("tui must be \"auto\", \"on\" or \"off\", got %q", c.GetTUI())
	}

	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// GetPort returns the serial device path or the default.
func (c *Config) GetPort() string { return stringOr(c.Port, DefaultPort) }

// GetBaudRate returns the baud_rate value or the default.
func (c *Config) GetBaudRate() int { return intOr(c.BaudRate, DefaultBaudRate) }

// GetDataBits returns the data_bits value or the default.
func (c *Config) GetDataBits() int { return intOr(c.DataBits, DefaultDataBits) }

// GetStopBits returns the stop_bits value or the default.
func (c *Config) GetStopBits() int { return intOr(c.StopBits, DefaultStopBits) }

// GetParity returns the parity value or the default.
func (c *Config) GetParity() string { return stringOr(c.Parity, DefaultParity) }

// GetReadTimeout parses and returns the ReadTimeout as a time.Duration.
func (c *Config) GetReadTimeout() time.Duration { return durationOr(c.ReadTimeout, DefaultReadTimeout) }

// GetRows returns the rows value or the default.
func (c *Config) GetRows() int { return intOr(c.Rows, DefaultRows) }

// GetCols returns the cols value or the default.
func (c *Config) GetCols() int { return intOr(c.Cols, DefaultCols) }

// GetRefreshPeriod parses and returns the RefreshPeriod as a time.Duration.
func (c *Config) GetRefreshPeriod() time.Duration {
	return durationOr(c.RefreshPeriod, DefaultRefreshPeriod)
}

// GetDisplayMin returns the display_min value or the default.
func (c *Config) GetDisplayMin() int { return intOr(c.DisplayMin, DefaultDisplayMin) }

// GetDisplayMax returns the display_max value or the default.
func (c *Config) GetDisplayMax() int { return intOr(c.DisplayMax, DefaultDisplayMax) }

// GetAcquisition returns the acquisition mode or the default.
func (c *Config) GetAcquisition() string {
	if c.Acquisition == nil || *c.Acquisition == "" {
		return DefaultAcquisition
	}
	return *c.Acquisition
}

// GetCountDistinctRows returns the count_distinct_rows value or the default.
func (c *Config) GetCountDistinctRows() bool {
	if c.CountDistinctRows == nil {
		return false // default
	}
	return *c.CountDistinctRows
}

// GetMaxRetries returns the max_retries value or the default.
func (c *Config) GetMaxRetries() int { return intOr(c.MaxRetries, 0) }

// GetInitialBackoff parses and returns the InitialBackoff as a time.Duration.
func (c *Config) GetInitialBackoff() time.Duration {
	return durationOr(c.InitialBackoff, DefaultInitialBackoff)
}

// GetMaxBackoff parses and returns the MaxBackoff as a time.Duration.
func (c *Config) GetMaxBackoff() time.Duration { return durationOr(c.MaxBackoff, DefaultMaxBackoff) }

// GetListen returns the web listen address or the default. An explicit
// empty string disables the web server.
func (c *Config) GetListen() string { return stringOr(c.Listen, DefaultListen) }

// GetTUI returns the tui setting or the default.
func (c *Config) GetTUI() string {
	if c.TUI == nil || *c.TUI == "" {
		return DefaultTUI
	}
	return *c.TUI
}

// GetLogFile returns the log file used while the terminal UI runs.
func (c *Config) GetLogFile() string { return stringOr(c.LogFile, DefaultLogFile) }
