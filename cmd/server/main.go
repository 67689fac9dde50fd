// Command server runs the apiforge HTTP service: a management plane for
// generating tenant APIs from live database schemas, plus the generated
// REST and GraphQL data planes.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"apiforge/internal/apigen"
	"apiforge/internal/config"
	"apiforge/internal/filestore"
	miniostore "apiforge/internal/filestore/minio"
	"apiforge/internal/logger"
	"apiforge/internal/registry"
	"apiforge/internal/server"

	// Database drivers register themselves on import.
	_ "apiforge/internal/database/mysql"
	_ "apiforge/internal/database/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(nil).Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}

	log := logger.New(&cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var files filestore.Store
	if cfg.FileStore != nil {
		files, err = miniostore.New(ctx, cfg.FileStore)
		if err != nil {
			log.Fatal().Err(err).Str("endpoint", cfg.FileStore.Endpoint).Msg("failed to connect to object storage")
		}
		log.Info().Str("bucket", cfg.FileStore.Bucket).Msg("object storage connected")
	}

	reg := registry.New(log)
	gen := apigen.NewGenerator(log, files)
	srv := server.New(cfg, log, reg, gen)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("http server failed")
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
	reg.Close()

	if files != nil {
		files.Close()
	}
	log.Info().Msg("server stopped")
}
