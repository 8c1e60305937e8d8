package server

import (
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"resumeroast/internal/config"
)

// mockVaultClient serves secrets from memory
type mockVaultClient struct {
	mu      sync.Mutex
	secrets map[string]*config.VaultSecret
	err     error
}

func (m *mockVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.secrets[path], nil
}

func (m *mockVaultClient) put(path, keys string, version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = &config.VaultSecret{Data: map[string]any{apiKeysField: keys}, Version: version}
}

func newWatcherFixture(t *testing.T) (*mockVaultClient, *VaultWatcher, *[][]string, *[]error) {
	t.Helper()
	client := &mockVaultClient{secrets: map[string]*config.VaultSecret{}}
	var reloaded [][]string
	var failures []error
	vw := NewVaultWatcher(client, "secret/data/resumeroast", time.Minute, func(keys []string, err error) {
		if err != nil {
			failures = append(failures, err)
			return
		}
		reloaded = append(reloaded, keys)
	}, newTestLogger())
	return client, vw, &reloaded, &failures
}

func TestVaultWatcherReloadsOnNewVersion(t *testing.T) {
	client, vw, reloaded, _ := newWatcherFixture(t)
	client.put("secret/data/resumeroast", "key-one, key-two", 1)

	vw.poll()
	if len(*reloaded) != 1 || !slices.Equal((*reloaded)[0], []string{"key-one", "key-two"}) {
		t.Fatalf("Expected first poll to load keys, got %v", *reloaded)
	}

	vw.poll()
	if len(*reloaded) != 1 {
		t.Errorf("Expected no reload for an unchanged version, got %d reloads", len(*reloaded))
	}

	client.put("secret/data/resumeroast", "key-three", 2)
	vw.poll()
	if len(*reloaded) != 2 || !slices.Equal((*reloaded)[1], []string{"key-three"}) {
		t.Errorf("Expected reload for version 2, got %v", *reloaded)
	}

	status := vw.Status()
	if status["last_version"] != int64(2) || status["reloads"] != 2 {
		t.Errorf("Unexpected status %v", status)
	}
}

func TestVaultWatcherRejectsEmptyKeySet(t *testing.T) {
	client, vw, reloaded, failures := newWatcherFixture(t)
	client.put("secret/data/resumeroast", " , ", 1)

	vw.poll()
	if len(*reloaded) != 0 {
		t.Errorf("Expected no keys applied, got %v", *reloaded)
	}
	if len(*failures) != 1 {
		t.Errorf("Expected the callback to receive an error, got %v", *failures)
	}
}

func TestVaultWatcherRecordsReadErrors(t *testing.T) {
	client, vw, reloaded, _ := newWatcherFixture(t)
	client.err = fmt.Errorf("permission denied")

	vw.poll()
	if len(*reloaded) != 0 {
		t.Errorf("Expected no reload, got %v", *reloaded)
	}
	if vw.Status()["last_error"] != "permission denied" {
		t.Errorf("Expected last_error in status, got %v", vw.Status())
	}
}

func TestVaultWatcherStartStop(t *testing.T) {
	_, vw, _, _ := newWatcherFixture(t)
	if err := vw.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := vw.Start(); err == nil {
		t.Error("Expected error starting twice")
	}
	if vw.Status()["running"] != true {
		t.Error("Expected watcher to report running")
	}
	if err := vw.Stop(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := vw.Stop(); err != nil {
		t.Errorf("Expected second stop to be a no-op, got %v", err)
	}

	bad := NewVaultWatcher(&mockVaultClient{}, "p", 0, func([]string, error) {}, newTestLogger())
	if err := bad.Start(); err == nil {
		t.Error("Expected error for a zero poll interval")
	}
}
