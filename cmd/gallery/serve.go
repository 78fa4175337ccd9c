package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery"
	"github.com/sagarc03/gallery/config"
	galleryhttp "github.com/sagarc03/gallery/http"
	"github.com/sagarc03/gallery/keybackend"
	"github.com/sagarc03/gallery/storage/filesystem"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the gallery HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port (env: GALLERY_SERVER_PORT)")
	serveCmd.Flags().String("base-path", "", "mount every route under this prefix (env: GALLERY_SERVER_BASE_PATH)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	handlerConfig := galleryhttp.HandlerConfig{
		BasePath:      cfg.Server.BasePath,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}

	if files, ok := a.blobs.(*filesystem.Store); ok {
		secrets, keyErr := keybackend.Load(cfg.Auth.Keys, a.signing)
		if keyErr != nil {
			return fmt.Errorf("load access keys: %w", keyErr)
		}
		handlerConfig.Files = files
		handlerConfig.FileVerifier = gallery.NewSignatureVerifier(cfg.Auth.Region, cfg.Auth.Service, secrets)
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		handlerConfig.Metrics = galleryhttp.NewMetrics(reg)
	}

	handler := galleryhttp.NewHandler(&handlerConfig, a.catalog)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "base_path", cfg.Server.BasePath, "storage", cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return err
	}

	return nil
}
