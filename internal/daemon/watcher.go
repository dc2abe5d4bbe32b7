// Package daemon implements the foreground relearn watch loop.
package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/akatools/aka/internal/domain"
	"github.com/akatools/aka/internal/usecase"
)

// WatcherConfig holds watch loop configuration.
type WatcherConfig struct {
	// Debounce coalesces bursts of writes (editors often write a config
	// file several times on save) into one relearn pass.
	Debounce time.Duration
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{Debounce: 500 * time.Millisecond}
}

// Watcher relearns aliases whenever a monitored configuration file
// changes. It runs in the foreground (`aka relearn --watch`) and is the
// long-running complement to the mtime check performed by the hook.
type Watcher struct {
	config  WatcherConfig
	learner *usecase.Learner
	repo    domain.ConfigRepository
	logger  *zap.Logger
}

// NewWatcher creates a relearn watcher.
func NewWatcher(config WatcherConfig, learner *usecase.Learner, repo domain.ConfigRepository, logger *zap.Logger) *Watcher {
	return &Watcher{
		config:  config,
		learner: learner,
		repo:    repo,
		logger:  logger,
	}
}

// Run blocks until the context is canceled, relearning on changes to any
// monitored file. Watches are registered on the containing directories so
// atomic saves (write temp file, rename over target) are still observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	monitored := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, files := range w.repo.AllMonitoredFiles() {
		for _, path := range files {
			monitored[path] = true
			dirs[filepath.Dir(path)] = true
		}
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("could not watch directory",
				zap.String("dir", dir),
				zap.Error(err))
		}
	}

	w.logger.Info("watching for alias changes",
		zap.Int("files", len(monitored)),
		zap.Int("dirs", len(dirs)))

	debounce := time.NewTimer(w.config.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !monitored[event.Name] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("monitored file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			debounce.Reset(w.config.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-debounce.C:
			result, err := w.learner.LearnAll()
			if err != nil {
				w.logger.Warn("relearn failed", zap.Error(err))
				continue
			}
			w.logger.Info("relearned aliases",
				zap.Int("learned", result.Learned),
				zap.Int("updated", result.Updated),
				zap.Int("removed", result.Removed))
		}
	}
}
