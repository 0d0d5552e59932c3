package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cdpclient/internal/api"
	"cdpclient/internal/catalog"
	"cdpclient/internal/cdp"
	"cdpclient/internal/config"
	"cdpclient/internal/logging"
	"cdpclient/internal/session"
	"cdpclient/internal/transport"
)

// browserTarget keys the session bound to the browser-level endpoint.
const browserTarget = "browser"

var (
	flagPort       string
	flagBrowserURL string
	flagLogLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cdpclient",
		Short: "Typed client for the browser remote-debugging protocol",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to a browser endpoint and expose the introspection API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	serveCmd.Flags().StringVar(&flagPort, "port", "", "introspection API port (overrides config)")
	serveCmd.Flags().StringVar(&flagBrowserURL, "browser-url", "", "browser debugging endpoint (overrides config)")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	cfg := loadConfig()
	if flagPort != "" {
		cfg.Port = flagPort
	}
	if flagBrowserURL != "" {
		cfg.BrowserURL = flagBrowserURL
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logging.Setup(cfg.LogLevel)

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if err := cat.LoadFile(cfg.CatalogPath); err != nil {
			return err
		}
		log.Info().Str("path", cfg.CatalogPath).Msg("merged external catalog")
	}

	registry := session.NewRegistry(cat, cfg.DedupCacheSize)

	endpoint, err := transport.Discover(cfg.BrowserURL)
	if err != nil {
		return err
	}
	log.Info().Str("url", endpoint.WebSocketURL).Str("version", endpoint.Version).Msg("discovered browser endpoint")

	conn, err := transport.Dial(endpoint.WebSocketURL, transport.Config{
		MaxMessageSize: cfg.MaxMessageSize,
		ConnectTimeout: time.Duration(cfg.ConnectionTimeoutSeconds) * time.Second,
	}, func(msg *cdp.Message) {
		registry.Route(browserTarget, msg)
	})
	if err != nil {
		return err
	}

	// A dead connection tears its session down so pending requests reject
	// instead of hanging. During shutdown the session is already gone and
	// Close reports the unknown target; that path stays quiet.
	conn.OnClose(func() {
		if err := registry.Close(browserTarget); err == nil {
			log.Warn().Msg("browser connection lost, session closed")
		}
	})

	if _, err := registry.Open(browserTarget, conn); err != nil {
		return err
	}

	server := api.NewServer(registry, cat, cfg.Port)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting introspection API")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	registry.CloseAll()

	log.Info().Msg("stopped")
	return nil
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load config, using defaults")
		return config.DefaultConfig()
	}
	return cfg
}
