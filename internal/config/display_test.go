package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "display.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyDisplayConfig()

	if got := cfg.GetSerialPort(); got != "/dev/ttyUSB0" {
		t.Errorf("GetSerialPort = %q", got)
	}
	if got := cfg.GetBaudRate(); got != 115200 {
		t.Errorf("GetBaudRate = %d", got)
	}
	if got := cfg.GetWidth(); got != 64 {
		t.Errorf("GetWidth = %d", got)
	}
	if got := cfg.GetHeight(); got != 64 {
		t.Errorf("GetHeight = %d", got)
	}
	if cfg.GetInvert() {
		t.Error("GetInvert = true, want false")
	}
	if got := cfg.GetRowsBetweenSleeps(); got != 2 {
		t.Errorf("GetRowsBetweenSleeps = %d", got)
	}
	if got := cfg.GetRowDelay(); got != 17*time.Millisecond {
		t.Errorf("GetRowDelay = %v", got)
	}
	if got := cfg.GetMapCommand(); got != "./loadmap.sh" {
		t.Errorf("GetMapCommand = %q", got)
	}
	if got := cfg.GetMapImagePath(); got != "_map.png" {
		t.Errorf("GetMapImagePath = %q", got)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"serial_port": "/dev/ttyACM3", "row_delay": "10ms"}`)

	cfg, err := LoadDisplayConfig(path)
	if err != nil {
		t.Fatalf("LoadDisplayConfig: %v", err)
	}
	if got := cfg.GetSerialPort(); got != "/dev/ttyACM3" {
		t.Errorf("GetSerialPort = %q", got)
	}
	if got := cfg.GetRowDelay(); got != 10*time.Millisecond {
		t.Errorf("GetRowDelay = %v", got)
	}
	// Unset fields keep their defaults.
	if got := cfg.GetRowsBetweenSleeps(); got != 2 {
		t.Errorf("GetRowsBetweenSleeps = %d", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []string{
		`{"baud_rate": -1}`,
		`{"width": 0}`,
		`{"rows_between_sleeps": 0}`,
		`{"row_delay": "soon"}`,
		`not json`,
	}
	for _, contents := range cases {
		path := writeConfig(t, contents)
		if _, err := LoadDisplayConfig(path); err == nil {
			t.Errorf("LoadDisplayConfig accepted %q", contents)
		}
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "display.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDisplayConfig(path); err == nil {
		t.Error("LoadDisplayConfig accepted a non-JSON extension")
	}
}

func TestDefaultsFileLoads(t *testing.T) {
	cfg, err := LoadDisplayConfig("../../" + DefaultConfigPath)
	if err != nil {
		t.Fatalf("defaults file does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults file invalid: %v", err)
	}
}
