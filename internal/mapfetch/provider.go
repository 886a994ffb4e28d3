// Package mapfetch abstracts the external map renderer that turns a
// coordinate string into an image file on disk.
package mapfetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Provider renders the map at the given coordinates and returns the
// path of the rendered image file.
type Provider interface {
	Fetch(ctx context.Context, coords string) (string, error)
}

// ScriptProvider shells out to an external fetch command with the
// coordinate string as its only argument. The command is expected to
// leave the rendered image at ImagePath; a non-zero exit aborts the
// send pipeline.
type ScriptProvider struct {
	// Command is the fetch executable, e.g. "./loadmap.sh".
	Command string

	// ImagePath is where the command writes the rendered image.
	ImagePath string
}

func (p *ScriptProvider) Fetch(ctx context.Context, coords string) (string, error) {
	cmd := exec.CommandContext(ctx, p.Command, coords)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("map fetch command %s %q failed: %w", p.Command, coords, err)
	}
	return p.ImagePath, nil
}

// StaticProvider always returns the same image path without running
// anything. It backs dev mode and tests.
type StaticProvider struct {
	ImagePath string
}

func (p *StaticProvider) Fetch(ctx context.Context, coords string) (string, error) {
	return p.ImagePath, nil
}
