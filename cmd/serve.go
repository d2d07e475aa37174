package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/logging"
	"github.com/kozaktomas/stock-metadata/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Stock Metadata web server.
The server exposes a JSON API for generating metadata CSV files, either
synchronously or as background jobs with progress streamed over SSE, and
Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default from WEB_PORT, 8085)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from WEB_HOST, 0.0.0.0)")
	serveCmd.Flags().String("vocabulary", "", "YAML file overriding the title vocabulary (default from VOCABULARY_FILE)")
}

// applyServeFlags lets explicit flags override the environment configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)
	logger := logging.Component(newLogger(cmd, cfg), "web")

	vocab, err := loadVocabulary(mustGetString(cmd, "vocabulary"), cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openRunStore(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()
	logger.Info().Str("backend", cfg.Database.Backend()).Msg("run history ready")

	server := web.NewServer(cfg, logger, web.WithVocabulary(vocab), web.WithRunStore(store))

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error during shutdown")
		}
	}()

	fmt.Printf("Starting Stock Metadata API on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
