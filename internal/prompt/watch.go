package prompt

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDelay = 50 * time.Millisecond

// Watch reloads the catalog whenever path is written or replaced, until
// ctx is done.
func (c *Catalog) Watch(ctx context.Context, path string, logger zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// editors replace files by rename, so watch the directory
	if err := w.Add(dir); err != nil {
		return err
	}

	kick := make(chan struct{}, 1)
	go runReloads(ctx, kick, reloadDelay, func() {
		if err := c.Reload(path); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("prompt catalog reload failed, keeping previous")
			return
		}
		logger.Info().Str("path", path).Msg("prompt catalog reloaded")
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				requestReload(kick)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("prompt watcher error")
		}
	}
}

// requestReload queues at most one reload behind the one running.
func requestReload(kick chan<- struct{}) {
	select {
	case kick <- struct{}{}:
	default:
	}
}

// runReloads runs reload once per burst of kicks, one at a time. A kick
// that arrives during a reload schedules another.
func runReloads(ctx context.Context, kick <-chan struct{}, delay time.Duration, reload func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		reload()
	}
}
