package sumgen

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/funvibe/variant/internal/config"
)

// Watch generates once, then regenerates whenever the config or a source file
// of its package changes, until ctx is cancelled. Generation failures are
// logged and do not stop the watch.
func (r *Runner) Watch(ctx context.Context, configPath string) error {
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	w := &watchState{runner: r, watcher: watcher, configPath: configPath}
	if err := w.track(cfg); err != nil {
		return err
	}

	w.regenerate(ctx)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("watch stopped", zap.String("config", configPath))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				r.logger.Debug("change detected",
					zap.String("file", event.Name),
					zap.Stringer("op", event.Op))
				settle = time.After(r.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", zap.Error(err))

		case <-settle:
			settle = nil
			if w.configChanged {
				w.configChanged = false
				if cfg, err := LoadConfig(configPath); err != nil {
					r.logger.Error("reloading config", zap.Error(err))
					continue
				} else if err := w.track(cfg); err != nil {
					r.logger.Error("watching package", zap.Error(err))
				}
			}
			w.regenerate(ctx)
		}
	}
}

type watchState struct {
	runner     *Runner
	watcher    *fsnotify.Watcher
	configPath string

	pkgDir        string
	output        string
	configChanged bool
}

// track points the watcher at the config directory and cfg's package.
func (w *watchState) track(cfg *Config) error {
	pkgDir, err := filepath.Abs(cfg.PackageDir())
	if err != nil {
		return err
	}
	configDir := filepath.Dir(w.configPath)

	if w.pkgDir != "" && w.pkgDir != pkgDir && w.pkgDir != configDir {
		_ = w.watcher.Remove(w.pkgDir)
	}
	for _, dir := range []string{configDir, pkgDir} {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.pkgDir = pkgDir
	w.output = filepath.Join(pkgDir, cfg.Output)
	return nil
}

func (w *watchState) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if event.Name == w.configPath {
		w.configChanged = true
		return true
	}
	return filepath.Dir(event.Name) == w.pkgDir &&
		config.IsGoSource(event.Name) &&
		event.Name != w.output
}

func (w *watchState) regenerate(ctx context.Context) {
	res, err := w.runner.generate(ctx, w.configPath)
	if err != nil {
		if ctx.Err() == nil {
			w.runner.logger.Error("generation failed", zap.Error(err))
		}
		return
	}
	if res.Written {
		w.runner.logger.Info("regenerated", zap.String("output", res.OutputPath))
	}
}
