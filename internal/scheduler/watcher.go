package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wonny/volscan/pkg/logger"
)

// Watcher reports edits of the configuration workbook.
// The parent directory is watched because editors replace the file on save.
type Watcher struct {
	path     string
	cooldown time.Duration
	logger   *logger.Logger
}

// NewWatcher creates a watcher with a trailing-edge debounce of cooldown
func NewWatcher(path string, cooldown time.Duration, log *logger.Logger) *Watcher {
	return &Watcher{
		path:     path,
		cooldown: cooldown,
		logger:   log.Component("watcher"),
	}
}

// Run calls onChange once the file has been quiet for cooldown, until ctx is cancelled.
// A save made of several writes therefore reloads once, after its last write.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":     target,
		"cooldown": w.cooldown.String(),
	}).Info("Watching configuration file")

	var (
		timer   *time.Timer
		settled <-chan time.Time
		lastOp  fsnotify.Op
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-settled:
			settled = nil
			w.logger.WithField("op", lastOp.String()).Info("Configuration file changed")
			onChange()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// 저장 중 이벤트마다 대기 시간을 다시 시작
			lastOp = event.Op
			if timer == nil {
				timer = time.NewTimer(w.cooldown)
			} else {
				timer.Reset(w.cooldown)
			}
			settled = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watcher error")
		}
	}
}
