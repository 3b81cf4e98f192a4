package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads the tracker block whenever its YAML file changes and hands
// the validated result to a callback. The parent directory is watched rather
// than the file itself so editors that replace the file on save still
// trigger events.
type Watcher struct {
	path     string
	onChange func(TrackerConfig)
	logger   *logrus.Entry
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

func NewWatcher(path string, logger *logrus.Entry, onChange func(TrackerConfig)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tracker config path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config directory %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		onChange: onChange,
		logger:   logger,
		watcher:  fw,
		debounce: 500 * time.Millisecond, // Collapse editor write bursts into one reload
	}, nil
}

// Start begins watching in the background until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.WithField("path", w.path).Info("Watching tracker config file for changes")
	go w.watchLoop(ctx)
}

// Stop closes the underlying file system watcher.
func (w *Watcher) Stop() {
	_ = w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	base := filepath.Base(w.path)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Everything else in the directory is not ours.
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("Tracker config file changed")
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(w.debounce, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Tracker config watcher error")
		}
	}
}

// reload keeps the previous options when the changed file fails validation.
func (w *Watcher) reload() {
	tracker, err := LoadTracker(w.path)
	if err != nil {
		w.logger.WithError(err).Error("Tracker config reload failed, keeping previous options")
		return
	}
	w.logger.WithField("path", w.path).Info("Tracker config reloaded")
	w.onChange(tracker)
}
