// playframes streams a numbered image sequence to the helmet display
// at a fixed cadence. Frames are files named by -pattern inside -dir,
// numbered from 1; playback stops at the first missing frame unless
// -loop is set.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/helmetmap/internal/config"
	"github.com/banshee-data/helmetmap/internal/device"
	"github.com/banshee-data/helmetmap/internal/serialmcu"
)

var (
	serialPort = flag.String("serial-port", "", "Serial port path (overrides config)")
	configPath = flag.String("config", "", "Path to a display config JSON file")
	dir        = flag.String("dir", "frames", "Directory holding the frame images")
	pattern    = flag.String("pattern", "frame_%03d.png", "Frame filename pattern")
	frameDelay = flag.Duration("delay", 500*time.Millisecond, "Target time per frame")
	loop       = flag.Bool("loop", false, "Restart from frame 1 after the last frame")
)

func main() {
	flag.Parse()

	cfg := config.EmptyDisplayConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadDisplayConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	portPath := cfg.GetSerialPort()
	if *serialPort != "" {
		portPath = *serialPort
	}

	session, err := device.Open(portPath, serialmcu.PortOptions{BaudRate: cfg.GetBaudRate()}, device.Options{
		Width:             cfg.GetWidth(),
		Height:            cfg.GetHeight(),
		Invert:            cfg.GetInvert(),
		RowsBetweenSleeps: cfg.GetRowsBetweenSleeps(),
		RowDelay:          cfg.GetRowDelay(),
	})
	if err != nil {
		log.Fatalf("failed to connect to display controller: %v", err)
	}
	defer session.Close()

	for frame := 1; ; frame++ {
		path := filepath.Join(*dir, fmt.Sprintf(*pattern, frame))
		if _, err := os.Stat(path); err != nil {
			if frame == 1 {
				log.Fatalf("no frames found: %v", err)
			}
			if !*loop {
				log.Printf("played %d frames", frame-1)
				return
			}
			frame = 0
			continue
		}

		start := time.Now()
		if _, err := session.SendImage(path); err != nil {
			log.Fatalf("failed to send %s: %v", path, err)
		}

		// Hold the remainder of the frame interval. Transmission
		// itself takes most of it at 64x64.
		if rest := *frameDelay - time.Since(start); rest > 0 {
			time.Sleep(rest)
		}
	}
}
