package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logging"
	"github.com/compvault/compvault/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve [files...]",
	Short: "Start the live preview server",
	Long: `Start the preview server with live reload. Watches component sources,
regenerates the sandbox document on change, and pushes it to connected
browsers over a websocket.

Examples:
  compvault serve                  # Watch the current directory
  compvault serve App.tsx app.css  # Preview a pinned file set`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 7878, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-open", false, "Don't open browser automatically")
	serveCmd.Flags().Int("debounce", 300, "Render debounce in milliseconds")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.no-open", serveCmd.Flags().Lookup("no-open"))
	viper.BindPFlag("preview.debounce_ms", serveCmd.Flags().Lookup("debounce"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.TargetFiles = args

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			logger.Error(ctx, shutdownErr, "error during server shutdown")
		}
		cancel()
	}()

	if len(args) > 0 {
		fmt.Printf("Previewing %v at http://%s:%d\n", args, cfg.Server.Host, cfg.Server.Port)
	} else {
		fmt.Printf("Preview server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
