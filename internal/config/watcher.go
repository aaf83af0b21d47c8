package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/df-mc/atomic"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk. Files that fail
// to load or validate are logged and skipped; Current keeps returning the
// last good config.
type Watcher struct {
	path    string
	logger  *zap.Logger
	current *atomic.Value[Config]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch loads path and starts watching it until ctx is done or Close is
// called. onChange runs on the watcher goroutine after every successful
// reload.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(Config)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		logger:  logger,
		current: atomic.NewValue(cfg),
		watcher: fw,
		done:    make(chan struct{}),
	}

	go w.watch(ctx, onChange)
	return w, nil
}

// Current returns the last config that loaded successfully.
func (w *Watcher) Current() Config {
	return w.current.Load()
}

// Close stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watch(ctx context.Context, onChange func(Config)) {
	defer close(w.done)

	tick := time.NewTicker(debounce)
	defer tick.Stop()
	var lastEvent *fsnotify.Event

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case <-tick.C:
			if lastEvent == nil {
				continue
			}
			lastEvent = nil
			w.reload(onChange)
		case e, ok := <-w.watcher.Events:
			if !ok {
				w.logger.Debug("closing config watcher",
					zap.String("cause", "watcher event channel closed"),
				)
				return
			}

			if filepath.Clean(e.Name) != w.path {
				continue
			}

			if e.Op&fsnotify.Write == fsnotify.Write ||
				e.Op&fsnotify.Create == fsnotify.Create ||
				e.Op&fsnotify.Rename == fsnotify.Rename {
				lastEvent = &e
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.logger.Debug("closing config watcher",
					zap.String("cause", "watcher error channel closed"),
				)
				return
			}

			w.logger.Error("error while watching config",
				zap.Error(err),
				zap.String("path", w.path),
			)
		}
	}
}

func (w *Watcher) reload(onChange func(Config)) {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("failed to reload config",
			zap.Error(err),
			zap.String("path", w.path),
		)
		return
	}

	w.current.Store(cfg)
	w.logger.Info("reloaded config", zap.String("path", w.path))

	if onChange != nil {
		onChange(cfg)
	}
}
