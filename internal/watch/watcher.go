package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rfields/scanwatch/constants"
)

// WatcherConfig controls filesystem intake.
type WatcherConfig struct {
	Root        string
	AllowedExts map[string]struct{}
	Debounce    time.Duration // coalesce rapid create/write bursts
}

// StartWatcher watches the root directory (non-recursive; the scanner
// drops files flat) and emits candidate paths. Files whose names already
// match a produced naming template are skipped so our own renames do not
// re-enter the queue.
func StartWatcher(ctx context.Context, cfg WatcherConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("no watch root provided")
	}
	if cfg.AllowedExts == nil {
		cfg.AllowedExts = constants.AllowedExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		logger.Error("failed to watch root directory", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}
	logger.Info("watcher started", "root", cfg.Root)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher close failed", "error", err)
			}
		}()

		// Debounce runs inside this goroutine via the timer channel case,
		// so pending and evCh are only ever touched from here.
		var timer *time.Timer
		var timerC <-chan time.Time
		pending := map[string]struct{}{}

		sendPending := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				logger.Info("watcher stopped")
				return
			case <-timerC:
				timerC = nil
				sendPending()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !candidate(e.Name, cfg.AllowedExts) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce > 0 {
					if timer == nil {
						timer = time.NewTimer(cfg.Debounce)
					} else {
						// A nil timerC means the timer already fired and was
						// drained, so there is nothing left in timer.C.
						if timerC != nil && !timer.Stop() {
							<-timer.C
						}
						timer.Reset(cfg.Debounce)
					}
					timerC = timer.C
				} else {
					sendPending()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// candidate filters paths to allowed extensions that are not yet named by
// a previous run.
func candidate(path string, exts map[string]struct{}) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := exts[ext]; !ok {
		return false
	}
	return !constants.IsProcessedName(filepath.Base(path))
}
