package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/wonny/volscan/pkg/logger"
)

// ErrNoReleaseCommand is returned when a held artifact cannot be released
var ErrNoReleaseCommand = errors.New("no release command configured")

// Releaser detects and breaks another process's hold on the artifact
type Releaser interface {
	IsHeld(path string) bool
	Release(ctx context.Context, path string) error
}

// NopReleaser never reports a hold
type NopReleaser struct{}

func (NopReleaser) IsHeld(string) bool                    { return false }
func (NopReleaser) Release(context.Context, string) error { return nil }

// ProcessReleaser runs an operator-configured command (e.g. `taskkill /f /im excel.exe`)
type ProcessReleaser struct {
	command []string
	logger  *logger.Logger
}

// NewProcessReleaser creates a releaser running command
func NewProcessReleaser(command []string, log *logger.Logger) *ProcessReleaser {
	return &ProcessReleaser{
		command: command,
		logger:  log.Component("releaser"),
	}
}

// IsHeld reports whether the file exists but cannot be opened for writing
func (r *ProcessReleaser) IsHeld(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return !errors.Is(err, os.ErrNotExist)
	}
	f.Close()
	return false
}

// Release runs the release command
func (r *ProcessReleaser) Release(ctx context.Context, path string) error {
	if len(r.command) == 0 {
		return ErrNoReleaseCommand
	}

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("release command %q: %w: %s", strings.Join(r.command, " "), err, strings.TrimSpace(string(out)))
	}

	r.logger.WithFields(map[string]interface{}{
		"command": strings.Join(r.command, " "),
		"path":    path,
	}).Info("Artifact released")
	return nil
}
