package daemon

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/harun/promethica/internal/config"
	"github.com/harun/promethica/internal/logger"
)

// configWatcher watches the config file and applies log-level changes at
// runtime. Upstream URLs and cache bounds still require a restart.
type configWatcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	log        zerolog.Logger

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
	done          chan struct{}
	stopOnce      sync.Once
}

const debounceDelay = 200 * time.Millisecond

func newConfigWatcher(configPath string, log zerolog.Logger) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory; editors replace files instead of writing in place.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}
	return &configWatcher{
		watcher:    watcher,
		configPath: configPath,
		log:        log.With().Str("component", "config_watcher").Logger(),
		done:       make(chan struct{}),
	}, nil
}

func (w *configWatcher) Start() {
	go w.loop()
	w.log.Debug().Str("path", w.configPath).Msg("Config watcher started")
}

func (w *configWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *configWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounce()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

func (w *configWatcher) debounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceDelay, w.reload)
}

func (w *configWatcher) reload() {
	cfg, err := config.NewLoader(w.configPath).Load()
	if err != nil {
		w.log.Warn().Err(err).Msg("Ignoring config change that failed to load")
		return
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		w.log.Warn().Err(err).Msg("Ignoring invalid log level from config change")
		return
	}
	w.log.Info().Str("level", cfg.Logging.Level).Msg("Applied log level from config change")
}
