package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := filepath.Join(tempDir, "system.md")
	userFile := filepath.Join(tempDir, "user.md")
	writePrompt(t, systemFile, "  Roast this resume.\n")
	writePrompt(t, userFile, "Role: {{.TargetRole}}\n{{.ResumeText}}")

	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{
		SystemPrompt:     "inline system prompt",
		SystemPromptFile: systemFile,
		UserPromptFile:   userFile,
	}}}

	require.NoError(t, config.loadPromptsFromFiles())

	assert.Equal(t, "Roast this resume.", config.Prompts.System(), "file overrides inline prompt")
	assert.Equal(t, "Role: {{.TargetRole}}\n{{.ResumeText}}", config.Prompts.User())
	assert.Equal(t, 1, config.Prompts.Version())

	sources := config.Prompts.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, "config", sources[0].Source)
	assert.Equal(t, systemFile, sources[1].FilePath)
	assert.Equal(t, "user", sources[2].Type)
}

func TestLoadPromptsInlineOnly(t *testing.T) {
	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{UserPrompt: "  {{.ResumeText}}  "}}}

	require.NoError(t, config.loadPromptsFromFiles())
	assert.Equal(t, "", config.Prompts.System())
	assert.Equal(t, "{{.ResumeText}}", config.Prompts.User())
}

func TestLoadPromptsEmptyFile(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.md")
	writePrompt(t, emptyFile, "   \n")

	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{SystemPromptFile: emptyFile}}}

	err := config.loadPromptsFromFiles()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestReloadPromptsKeepsPreviousOnError(t *testing.T) {
	systemFile := filepath.Join(t.TempDir(), "system.md")
	writePrompt(t, systemFile, "first")

	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{SystemPromptFile: systemFile}}}
	require.NoError(t, config.loadPromptsFromFiles())

	require.NoError(t, os.Remove(systemFile))
	assert.Error(t, config.ReloadPrompts())
	assert.Equal(t, "first", config.Prompts.System())
	assert.Equal(t, 1, config.Prompts.Version())
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := filepath.Join(tempDir, "valid.md")
	writePrompt(t, validFile, "Valid content")

	t.Run("valid file", func(t *testing.T) {
		config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{SystemPromptFile: validFile}}}
		assert.NoError(t, config.validatePromptFiles())
	})

	t.Run("missing file", func(t *testing.T) {
		config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{
			UserPromptFile: filepath.Join(tempDir, "missing.md"),
		}}}
		err := config.validatePromptFiles()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user prompt file not found")
	})

	t.Run("directory", func(t *testing.T) {
		config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{SystemPromptFile: tempDir}}}
		err := config.validatePromptFiles()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
	})

	t.Run("nothing configured", func(t *testing.T) {
		assert.NoError(t, (&Config{}).validatePromptFiles())
	})
}

func TestNilPromptStore(t *testing.T) {
	var store *PromptStore
	assert.Equal(t, "", store.System())
	assert.Equal(t, "", store.User())
	assert.Equal(t, 0, store.Version())
	assert.Nil(t, store.Sources())
}

func TestPromptWatcherReloads(t *testing.T) {
	systemFile := filepath.Join(t.TempDir(), "system.md")
	writePrompt(t, systemFile, "before")

	config := &Config{AI: AIConfig{CustomPrompts: PromptConfig{
		SystemPromptFile: systemFile,
		Watch:            true,
		DebounceDelay:    20 * time.Millisecond,
	}}}
	require.NoError(t, config.loadPromptsFromFiles())

	reloaded := make(chan struct{}, 8)
	var failures atomic.Int32
	watcher := NewPromptWatcher(config, newTestLogger())
	watcher.OnReload = func(err error) {
		if err != nil {
			failures.Add(1)
			return
		}
		reloaded <- struct{}{}
	}
	require.NoError(t, watcher.Start())
	defer func() { _ = watcher.Stop() }()
	assert.True(t, watcher.IsRunning())

	writePrompt(t, systemFile, "after")

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected prompt reload after file change")
	}
	assert.Equal(t, "after", config.Prompts.System())

	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
}

func TestPromptWatcherWithoutFiles(t *testing.T) {
	watcher := NewPromptWatcher(&Config{}, nil)
	assert.NoError(t, watcher.Start())
	assert.False(t, watcher.IsRunning())
	assert.Empty(t, watcher.WatchedFiles())
	assert.NoError(t, watcher.Stop())
}
