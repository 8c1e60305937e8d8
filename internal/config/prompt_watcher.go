package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumeroast/internal/errors"
)

// PromptWatcher reloads the prompt store when a prompt file changes on disk
type PromptWatcher struct {
	mu sync.Mutex

	cfg   *Config
	files []string

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	done       chan struct{}

	// OnReload is called after every reload attempt with its result
	OnReload func(error)
	logger   *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher for the prompt files configured in cfg
func NewPromptWatcher(cfg *Config, logger *errors.Logger) *PromptWatcher {
	delay := cfg.AI.CustomPrompts.DebounceDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &PromptWatcher{
		cfg:           cfg,
		files:         cfg.PromptFiles(),
		debounceDelay: delay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Start begins watching. It is a no-op when no prompt files are configured.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher

	// Watch directories so editors that replace files by rename are seen
	dirs := make(map[string]bool)
	for _, file := range pw.files {
		dir := filepath.Dir(file)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher started",
			"files", pw.files,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	if !pw.running {
		pw.mu.Unlock()
		return nil
	}
	pw.running = false
	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.mu.Unlock()

	err := pw.fsWatcher.Close()
	<-pw.done

	if pw.logger != nil {
		pw.logger.Info("Prompt file watcher stopped")
	}
	return err
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}

// WatchedFiles returns the prompt files being watched
func (pw *PromptWatcher) WatchedFiles() []string {
	return append([]string(nil), pw.files...)
}

func (pw *PromptWatcher) watchLoop() {
	defer close(pw.done)
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.isPromptEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Prompt watcher error")
			}

		case <-pw.reloadChan:
			pw.reload()

		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) isPromptEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = event.Name
	}
	for _, file := range pw.files {
		if name == file {
			return true
		}
	}
	return false
}

// scheduleReload schedules a debounced reload
func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
		}
	})
}

func (pw *PromptWatcher) reload() {
	for _, file := range pw.files {
		if _, err := os.Stat(file); err != nil {
			// mid-rename; the create event that follows schedules another reload
			pw.notify(fmt.Errorf("prompt file unavailable: %w", err))
			return
		}
	}

	err := pw.cfg.ReloadPrompts()
	if pw.logger != nil {
		if err != nil {
			pw.logger.LogError(err, "Failed to reload prompts, keeping previous version")
		} else {
			pw.logger.Info("Prompts reloaded", "version", pw.cfg.Prompts.Version())
		}
	}
	pw.notify(err)
}

func (pw *PromptWatcher) notify(err error) {
	if pw.OnReload != nil {
		pw.OnReload(err)
	}
}
