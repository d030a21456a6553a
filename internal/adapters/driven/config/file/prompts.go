package file

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the built-in prompts, one <name>.txt per prompt, and the
// README copied next to them.
//
//go:embed defaults/*.txt defaults/README.md
var defaults embed.FS

const promptExt = ".txt"

// PromptStore serves prompt templates from a directory the user can edit.
// The directory is seeded from the built-in defaults on first use, and a
// missing or unreadable file falls back to its default.
type PromptStore struct {
	dir  string
	init func() error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a store over dir, or ~/.sercha/chat/prompts when dir
// is empty. No files are touched until the first Load or Watch.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".sercha", "chat", "prompts")
	}

	s := &PromptStore{dir: dir, cache: make(map[string]string)}
	s.init = sync.OnceValue(s.seed)
	return s, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt, trimmed.
func (s *PromptStore) Load(name string) (string, error) {
	if err := s.init(); err != nil {
		if def, ok := builtin(name); ok {
			return def, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", err)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		if def, ok := builtin(name); ok {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	prompt = strings.TrimSpace(string(data))

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Watch calls Reload whenever a prompt file changes, until ctx is cancelled.
func (s *PromptStore) Watch(ctx context.Context) error {
	if err := s.init(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch prompt directory: %w", err)
	}
	logger.Debug("Watching prompts in %s", s.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if changesPrompt(event) {
				logger.Info("Prompt %s changed (%s), reloading", filepath.Base(event.Name), event.Op)
				s.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Prompt watcher error: %v", err)
		}
	}
}

func changesPrompt(event fsnotify.Event) bool {
	return filepath.Ext(event.Name) == promptExt &&
		event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// seed creates the directory and writes each default file that is missing.
// Existing files are never overwritten.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	entries, err := fs.ReadDir(defaults, "defaults")
	if err != nil {
		return fmt.Errorf("read built-in prompts: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(s.dir, e.Name())
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaults.ReadFile("defaults/" + e.Name())
		if err != nil {
			return fmt.Errorf("read built-in %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("create default %s: %w", e.Name(), err)
		}
	}
	return nil
}

// builtin returns the embedded default for name.
func builtin(name string) (string, bool) {
	data, err := defaults.ReadFile("defaults/" + name + promptExt)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
