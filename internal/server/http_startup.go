package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumeroast/internal/ai"
	"resumeroast/internal/config"
	"resumeroast/internal/observability"
)

// shutdownTimeout bounds how long in-flight requests get to finish
const shutdownTimeout = 30 * time.Second

// Start runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	s.Observability = om
	defer s.shutdownObservability(om)

	if s.Service == nil {
		service, err := ai.NewService(&s.AppConfig.AI, s.AppConfig.Prompts, om.GetMetrics(), s.Logger)
		if err != nil {
			return fmt.Errorf("failed to create AI service: %w", err)
		}
		s.Service = service
	}
	defer func() {
		if err := s.Service.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close AI service")
		}
	}()

	s.startPromptWatcher()
	if err := s.startKeyWatcher(); err != nil {
		return err
	}

	httpServer := s.setupHTTPServer()
	s.displayServerInfo()

	return s.startWithGracefulShutdown(ctx, httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)
	om, err := observability.NewObservabilityManager(obsConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// startPromptWatcher hot-reloads prompt files when configured. Failure to
// watch is logged; the server keeps the prompts it loaded at startup.
func (s *Server) startPromptWatcher() {
	if !s.AppConfig.AI.CustomPrompts.Watch || len(s.AppConfig.PromptFiles()) == 0 {
		return
	}

	watcher := config.NewPromptWatcher(s.AppConfig, s.Logger)
	watcher.OnReload = func(err error) {
		if err != nil {
			s.Logger.LogError(err, "Prompt reload failed, keeping previous prompts")
			return
		}
		s.Logger.Info("Prompts reloaded", "version", s.AppConfig.Prompts.Version())
	}
	if err := watcher.Start(); err != nil {
		s.Logger.LogError(err, "Failed to start prompt watcher")
		return
	}
	s.PromptWatcher = watcher
}

// startKeyWatcher polls Vault for rotated API keys when configured
func (s *Server) startKeyWatcher() error {
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.WatchInterval <= 0 || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create vault client for key watcher: %w", err)
	}
	if client == nil {
		return nil
	}

	watcher := NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.WatchInterval, func(keys []string, err error) {
		if err != nil {
			s.Logger.Warn("Keeping current API keys", "error", err)
			return
		}
		s.SetAPIKeys(keys)
	}, s.Logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start vault key watcher: %w", err)
	}
	s.KeyWatcher = watcher
	return nil
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown serves until ctx is done or the listener fails
func (s *Server) startWithGracefulShutdown(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"reason", context.Cause(ctx))
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopWatchers()
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopWatchers stops the prompt and API key watchers if they are running
func (s *Server) stopWatchers() {
	if s.PromptWatcher != nil {
		if err := s.PromptWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if s.KeyWatcher != nil {
		if err := s.KeyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop vault key watcher")
		}
	}
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
