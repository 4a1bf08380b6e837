package monitor

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"physica/internal/logging"
)

// fsWatcher kicks the scan loop when entries appear or disappear under a
// mount base. Automounters create the mount directory before the filesystem
// is usable, which is why a kick schedules a scan instead of reporting the
// path directly.
type fsWatcher struct {
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	kick    func()
}

func startFSWatcher(bases []string, logger *slog.Logger, kick func()) (*fsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	log := logging.NewComponentLogger(logger, "fswatch")
	watched := 0
	for _, base := range bases {
		if err := watcher.Add(base); err != nil {
			log.Debug("not watching mount base", logging.String("path", base), logging.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = watcher.Close()
		return nil, fmt.Errorf("no mount base could be watched")
	}

	w := &fsWatcher{logger: log, watcher: watcher, kick: kick}
	go w.loop()
	log.Info("mount base watch started", logging.Int("bases", watched))
	return w, nil
}

// Stop closes the watcher, which ends the loop. Safe on nil.
func (w *fsWatcher) Stop() {
	if w == nil {
		return
	}
	_ = w.watcher.Close()
}

func (w *fsWatcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("mount base changed",
					logging.String("path", event.Name),
					logging.String("op", event.Op.String()),
				)
				w.kick()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("mount base watch error", logging.Error(err))
		}
	}
}
