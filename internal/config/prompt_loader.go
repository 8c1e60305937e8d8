package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PromptSource tracks where a prompt came from
type PromptSource struct {
	Source   string `json:"source"` // "config" or "file"
	FilePath string `json:"filePath,omitempty"`
	Type     string `json:"type"` // "system" or "user"
}

// PromptStore holds the prompt overrides in effect. It is safe for
// concurrent use; the prompt watcher swaps contents while requests read them.
// An empty value means the built-in prompt is used.
type PromptStore struct {
	mu      sync.RWMutex
	system  string
	user    string
	sources []PromptSource
	version int
}

// NewPromptStore creates a store holding the given overrides
func NewPromptStore(system, user string) *PromptStore {
	return &PromptStore{system: system, user: user}
}

// System returns the system prompt override, if any
func (s *PromptStore) System() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system
}

// User returns the user prompt template override, if any
func (s *PromptStore) User() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Version increases every time the store contents are replaced
func (s *PromptStore) Version() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Sources returns where the current prompts were loaded from
func (s *PromptStore) Sources() []PromptSource {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PromptSource(nil), s.sources...)
}

func (s *PromptStore) set(system, user string, sources []PromptSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system = system
	s.user = user
	s.sources = sources
	s.version++
}

// loadPromptsFromFiles builds the prompt store from inline prompts and prompt
// files. A file takes precedence over the inline value of the same prompt.
func (c *Config) loadPromptsFromFiles() error {
	if c.Prompts == nil {
		c.Prompts = &PromptStore{}
	}
	if err := c.ReloadPrompts(); err != nil {
		return err
	}
	c.logPromptLoadingSummary()
	return nil
}

// ReloadPrompts re-reads the configured prompt files into the prompt store.
// On error the store keeps its previous contents.
func (c *Config) ReloadPrompts() error {
	prompts := c.AI.CustomPrompts
	var sources []PromptSource

	system := strings.TrimSpace(prompts.SystemPrompt)
	if system != "" {
		sources = append(sources, PromptSource{Source: "config", Type: "system"})
	}
	if prompts.SystemPromptFile != "" {
		content, err := loadPromptFromFile(prompts.SystemPromptFile, "system")
		if err != nil {
			return err
		}
		system = content
		sources = append(sources, PromptSource{Source: "file", FilePath: prompts.SystemPromptFile, Type: "system"})
	}

	user := strings.TrimSpace(prompts.UserPrompt)
	if user != "" {
		sources = append(sources, PromptSource{Source: "config", Type: "user"})
	}
	if prompts.UserPromptFile != "" {
		content, err := loadPromptFromFile(prompts.UserPromptFile, "user")
		if err != nil {
			return err
		}
		user = content
		sources = append(sources, PromptSource{Source: "file", FilePath: prompts.UserPromptFile, Type: "user"})
	}

	if c.Prompts == nil {
		c.Prompts = &PromptStore{}
	}
	c.Prompts.set(system, user, sources)
	return nil
}

// PromptFiles returns the absolute paths of the configured prompt files
func (c *Config) PromptFiles() []string {
	var files []string
	for _, f := range []string{c.AI.CustomPrompts.SystemPromptFile, c.AI.CustomPrompts.UserPromptFile} {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		files = append(files, f)
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)",
		promptType, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", promptType, filePath))
			return
		}

		info, err := os.Stat(absPath)
		switch {
		case os.IsNotExist(err):
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", promptType, absPath))
		case err != nil:
			validationErrors = append(validationErrors, fmt.Sprintf("cannot access %s prompt file %s: %v", promptType, absPath, err))
		case info.IsDir():
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt path is a directory: %s", promptType, absPath))
		}
	}

	validateFile(c.AI.CustomPrompts.SystemPromptFile, "system")
	validateFile(c.AI.CustomPrompts.UserPromptFile, "user")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	sources := c.Prompts.Sources()
	for _, src := range sources {
		if src.FilePath != "" {
			log.Printf("[CONFIG] %s prompt: loaded from file %s", src.Type, src.FilePath)
		} else {
			log.Printf("[CONFIG] %s prompt: loaded from config", src.Type)
		}
	}

	if len(sources) == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	}

	log.Println("[CONFIG] ==========================================")
}
