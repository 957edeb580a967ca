package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/keva/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the keva HTTP server",
	Long: `Start an HTTP server that provides the key-value API.

The server provides the following endpoints:
  GET/PUT/DELETE /kv/<key>  - Read, write, and delete values
  GET  /keys                - List stored keys
  GET  /watch               - WebSocket stream of change events
  GET  /admin/journeys      - Aggregated per-stage latency summary
  GET  /metrics             - Prometheus metrics
  GET  /health              - Health check endpoint

Examples:
  keva serve
  keva serve --port 8080 --tracking
  keva serve --host 0.0.0.0 --journal=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		// Extract server configuration with CLI flag overrides
		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		apiKey := cfg.Server.APIKey
		if cmd.Flags().Changed("api-key") {
			apiKey, _ = cmd.Flags().GetString("api-key")
		}

		maxBodyMB := cfg.Server.MaxBodyMB
		if cmd.Flags().Changed("max-body-mb") {
			maxBodyMB, _ = cmd.Flags().GetInt64("max-body-mb")
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		dataDir := cfg.Store.DataDir
		if cmd.Flags().Changed("data-dir") {
			dataDir, _ = cmd.Flags().GetString("data-dir")
		}

		journalEnabled := cfg.Store.JournalEnabled
		if cmd.Flags().Changed("journal") {
			journalEnabled, _ = cmd.Flags().GetBool("journal")
		}

		trackingEnabled := cfg.Tracking.Enabled
		if cmd.Flags().Changed("tracking") {
			trackingEnabled, _ = cmd.Flags().GetBool("tracking")
		}

		rateLimitEnabled := cfg.Server.RateLimitEnabled
		if cmd.Flags().Changed("rate-limit-enabled") {
			rateLimitEnabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		if journalEnabled {
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverConfig := server.Config{
			Host:            host,
			Port:            port,
			CORSOrigin:      corsOrigin,
			APIKey:          apiKey,
			MaxBodyMB:       maxBodyMB,
			TimeoutSec:      timeout,
			DataDir:         dataDir,
			JournalEnabled:  journalEnabled,
			TrackingEnabled: trackingEnabled,
			RateLimit: server.RateLimitConfig{
				Enabled:           rateLimitEnabled,
				RequestsPerMinute: cfg.Server.RequestsPerMinute,
				RequestsPerHour:   cfg.Server.RequestsPerHour,
				MaxRequestsPerDay: cfg.Server.MaxRequestsPerDay,
				MaxDataPerDay:     cfg.Server.MaxDataPerDay,
			},
		}

		kevaServer, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		mux := http.NewServeMux()
		kevaServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting keva server",
				"host", host, "port", port,
				"journal", journalEnabled, "tracking", trackingEnabled)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		if err := kevaServer.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().String("api-key", "", "API key required for /kv requests (empty disables auth)")
	serveCmd.Flags().Int64("max-body-mb", 16, "maximum request body size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("data-dir", "data", "directory for the store journal")
	serveCmd.Flags().Bool("journal", true, "enable the durable mutation journal")
	serveCmd.Flags().Bool("tracking", false, "enable per-operation journey tracking")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
}
