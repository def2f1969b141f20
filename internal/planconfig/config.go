// Package planconfig loads the memory planner's tunables from a flat
// "key=value" file — arena sizing hints, the 1D fuzzy-match range, and log
// verbosity — and can hot-reload them with fsnotify when the planner runs
// as a long-lived service (cmd/memplan-serve).
package planconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/memplan/internal/planlog"
)

// Config holds the planner's runtime tunables.
type Config struct {
	// FuzzyRange is the 1D allocator's reuse window divisor/multiplier
	// (spec §4.3 fixes this at 16; defaulting to 16 preserves that
	// behavior when unconfigured).
	FuzzyRange int
	// ArenaHint is the number of tokens to pre-size the arena for.
	ArenaHint int
	// LogLevel selects planlog verbosity.
	LogLevel planlog.Level
}

// Default returns the spec-preserving configuration.
func Default() Config {
	return Config{FuzzyRange: 16, ArenaHint: 256, LogLevel: planlog.LevelInfo}
}

// Load parses a flat key=value file, one assignment per line, '#' comments
// allowed, missing keys falling back to Default().
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return parse(f)
}

func parse(f *os.File) (Config, error) {
	cfg := Default()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return Config{}, fmt.Errorf("malformed config line %q", line)
		}

		key, val = strings.TrimSpace(key), strings.TrimSpace(val)

		switch key {
		case "fuzzy_range":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Config{}, fmt.Errorf("fuzzy_range: %w", err)
			}

			cfg.FuzzyRange = n
		case "arena_hint":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Config{}, fmt.Errorf("arena_hint: %w", err)
			}

			cfg.ArenaHint = n
		case "log_level":
			switch val {
			case "silent":
				cfg.LogLevel = planlog.LevelSilent
			case "info":
				cfg.LogLevel = planlog.LevelInfo
			case "debug":
				cfg.LogLevel = planlog.LevelDebug
			default:
				return Config{}, fmt.Errorf("log_level: unknown value %q", val)
			}
		default:
			return Config{}, fmt.Errorf("unknown config key %q", key)
		}
	}

	if err := scanner.Err(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Watcher reloads Config from disk whenever the backing file changes,
// exposing the last-successfully-parsed value to concurrent readers. Modeled
// on internal/runtime/vfs's FSNotifyWatcher event loop.
type Watcher struct {
	mu      sync.RWMutex
	current Config

	w      *fsnotify.Watcher
	log    *planlog.Logger
	closed chan struct{}
}

// WatchFile starts watching path, loading its initial contents synchronously
// before returning.
func WatchFile(path string, log *planlog.Logger) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	wt := &Watcher{current: cfg, w: fw, log: log, closed: make(chan struct{})}

	go wt.loop(path)

	return wt, nil
}

func (wt *Watcher) loop(path string) {
	for {
		select {
		case ev, ok := <-wt.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				wt.log.Info(planlog.CatDispatch, "config reload failed: %v", err)
				continue
			}

			wt.mu.Lock()
			wt.current = cfg
			wt.mu.Unlock()

			wt.log.Info(planlog.CatDispatch, "config reloaded from %s", path)
		case err, ok := <-wt.w.Errors:
			if !ok {
				return
			}

			wt.log.Info(planlog.CatDispatch, "config watch error: %v", err)
		case <-wt.closed:
			return
		}
	}
}

// Current returns the most recently loaded configuration.
func (wt *Watcher) Current() Config {
	wt.mu.RLock()
	defer wt.mu.RUnlock()

	return wt.current
}

// Close stops the watcher.
func (wt *Watcher) Close() error {
	close(wt.closed)
	return wt.w.Close()
}
