package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"resumeroast/internal/config"
	"resumeroast/internal/errors"
)

// apiKeysField is the secret field holding comma-separated API keys
const apiKeysField = "keys"

// VaultSecretReader is the part of the Vault client the watcher needs
type VaultSecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// KeysReloadCallback receives the new API key set, or the error that prevented loading it
type KeysReloadCallback func(keys []string, err error)

// VaultWatcher polls the API key secret in Vault and hands every new
// version's keys to the reload callback.
type VaultWatcher struct {
	mu sync.RWMutex

	client         VaultSecretReader
	secretPath     string
	pollInterval   time.Duration
	reloadCallback KeysReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
	lastError   string
	reloads     int
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client VaultSecretReader, secretPath string, pollInterval time.Duration, reloadCallback KeysReloadCallback, logger *errors.Logger) *VaultWatcher {
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watcher poll interval must be positive, got %v", vw.pollInterval)
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault API key watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault API key watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll checks the secret version once and reloads the keys when it moved.
func (vw *VaultWatcher) poll() {
	secret, changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for API key updates", "secret_path", vw.secretPath)
		return
	}
	if !changed {
		return
	}

	keys, err := parseAPIKeys(secret)
	if err != nil {
		vw.logger.LogError(err, "Failed to read API keys from Vault secret", "secret_path", vw.secretPath)
		vw.reloadCallback(nil, err)
		return
	}

	vw.mu.Lock()
	vw.reloads++
	vw.mu.Unlock()

	vw.logger.Info("API keys reloaded from Vault",
		"secret_path", vw.secretPath,
		"version", secret.Version,
		"count", len(keys))
	vw.reloadCallback(keys, nil)
}

// checkForUpdates reports whether the secret version is newer than the last one seen
func (vw *VaultWatcher) checkForUpdates() (*config.VaultSecret, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)

	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.lastCheck = time.Now()

	if err != nil {
		vw.lastError = err.Error()
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		vw.lastError = "secret not found"
		return nil, false, fmt.Errorf("secret not found at %s", vw.secretPath)
	}
	vw.lastError = ""

	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return secret, true, nil
	}
	return secret, false, nil
}

// parseAPIKeys reads the comma-separated key list. An empty list is an
// error: accepting it would silently turn authentication off.
func parseAPIKeys(secret *config.VaultSecret) ([]string, error) {
	raw, err := secret.StringField(apiKeysField)
	if err != nil {
		return nil, err
	}

	var keys []string
	for key := range strings.SplitSeq(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("secret field '%s' holds no API keys", apiKeysField)
	}
	return keys, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"reloads":       vw.reloads,
	}
	if !vw.lastCheck.IsZero() {
		status["last_check"] = vw.lastCheck.Format(time.RFC3339)
	}
	if vw.lastError != "" {
		status["last_error"] = vw.lastError
	}
	return status
}
