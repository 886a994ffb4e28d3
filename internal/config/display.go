// Package config loads the display tuning parameters from JSON. All
// fields are pointers so a partial file only overrides what it names;
// the Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical display defaults file.
const DefaultConfigPath = "config/display.defaults.json"

// DisplayConfig holds the serial link and pacing parameters for the
// helmet matrix controller plus the map-fetch wiring. The pacing
// values are tuned against the controller firmware: it has no flow
// control, so sending faster than these defaults corrupts the panel.
type DisplayConfig struct {
	// Serial link
	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`

	// Panel geometry and rendering
	Width  *int  `json:"width,omitempty"`
	Height *int  `json:"height,omitempty"`
	Invert *bool `json:"invert,omitempty"`

	// Transmit pacing
	RowsBetweenSleeps *int    `json:"rows_between_sleeps,omitempty"`
	RowDelay          *string `json:"row_delay,omitempty"` // duration string like "17ms"

	// Map fetch collaborator
	MapCommand   *string `json:"map_command,omitempty"`
	MapImagePath *string `json:"map_image_path,omitempty"`
}

// EmptyDisplayConfig returns a DisplayConfig with all fields unset.
func EmptyDisplayConfig() *DisplayConfig {
	return &DisplayConfig{}
}

// LoadDisplayConfig loads a DisplayConfig from a JSON file. Fields
// omitted from the file retain their defaults, so partial configs are
// safe.
func LoadDisplayConfig(path string) (*DisplayConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyDisplayConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *DisplayConfig) Validate() error {
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	if c.Width != nil && *c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", *c.Width)
	}
	if c.Height != nil && *c.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", *c.Height)
	}
	if c.RowsBetweenSleeps != nil && *c.RowsBetweenSleeps < 1 {
		return fmt.Errorf("rows_between_sleeps must be at least 1, got %d", *c.RowsBetweenSleeps)
	}
	if c.RowDelay != nil && *c.RowDelay != "" {
		if _, err := time.ParseDuration(*c.RowDelay); err != nil {
			return fmt.Errorf("invalid row_delay %q: %w", *c.RowDelay, err)
		}
	}
	return nil
}

// GetSerialPort returns the serial port path or the default.
func (c *DisplayConfig) GetSerialPort() string {
	if c.SerialPort == nil || *c.SerialPort == "" {
		return "/dev/ttyUSB0"
	}
	return *c.SerialPort
}

// GetBaudRate returns the baud rate or the default.
func (c *DisplayConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return 115200
	}
	return *c.BaudRate
}

// GetWidth returns the panel width or the default.
func (c *DisplayConfig) GetWidth() int {
	if c.Width == nil {
		return 64
	}
	return *c.Width
}

// GetHeight returns the panel height or the default.
func (c *DisplayConfig) GetHeight() int {
	if c.Height == nil {
		return 64
	}
	return *c.Height
}

// GetInvert returns whether thresholding is inverted.
func (c *DisplayConfig) GetInvert() bool {
	if c.Invert == nil {
		return false
	}
	return *c.Invert
}

// GetRowsBetweenSleeps returns the pacing row count or the default.
func (c *DisplayConfig) GetRowsBetweenSleeps() int {
	if c.RowsBetweenSleeps == nil {
		return 2
	}
	return *c.RowsBetweenSleeps
}

// GetRowDelay parses and returns the pacing sleep duration.
func (c *DisplayConfig) GetRowDelay() time.Duration {
	if c.RowDelay == nil || *c.RowDelay == "" {
		return 17 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.RowDelay)
	if err != nil {
		return 17 * time.Millisecond
	}
	return d
}

// GetMapCommand returns the fetch command or the default.
func (c *DisplayConfig) GetMapCommand() string {
	if c.MapCommand == nil || *c.MapCommand == "" {
		return "./loadmap.sh"
	}
	return *c.MapCommand
}

// GetMapImagePath returns where the fetch command leaves the rendered
// map image.
func (c *DisplayConfig) GetMapImagePath() string {
	if c.MapImagePath == nil || *c.MapImagePath == "" {
		return "_map.png"
	}
	return *c.MapImagePath
}
