package cli

import (
	"github.com/spf13/cobra"

	"resumeroast/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the roast API.

Available endpoints:
- POST /api/v1/parse: Extract text from an uploaded resume (multipart field "file")
- POST /api/v1/analyze: Stream a roast as Server-Sent Events
- POST /api/v1/diff: Word diff of two texts
- GET /health: Health check with AI model status
- GET /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

var serveOptions struct {
	port string
	host string
}

func init() {
	serveCmd.Flags().StringVarP(&serveOptions.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveOptions.host, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if serveOptions.port != "" {
		cfg.Server.Port = serveOptions.port
	}
	if serveOptions.host != "" {
		cfg.Server.Host = serveOptions.host
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestBody,
		MaxFileSize:    cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, nil, logger).Start(cmd.Context())
}
