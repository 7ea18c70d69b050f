package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"field-service/internal/capture"
	"field-service/internal/client"
	"field-service/internal/config"
	"field-service/internal/db"
	httphandler "field-service/internal/http"
	"field-service/internal/http/middleware"
	"field-service/internal/logger"
	"field-service/internal/report"
	"field-service/internal/repository"
	"field-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cmd.Context(), cfg, logger.New(cfg.Environment, cfg.LogLevel))
	},
}

type stores struct {
	fields      service.FieldRepository
	operations  service.OperationRepository
	cropHistory service.CropHistoryRepository
}

func openStores(cfg *config.Config, log zerolog.Logger) (stores, error) {
	if cfg.Store == config.StoreRemote {
		backend := client.NewBackendClient(cfg)
		log.Info().Str("url", cfg.Backend.URL).Msg("using remote field backend")
		return stores{
			fields:      backend.Fields(),
			operations:  backend.Operations(),
			cropHistory: backend.CropHistory(),
		}, nil
	}

	database, err := db.New(cfg, log)
	if err != nil {
		return stores{}, err
	}
	if cfg.DB.Driver == config.DriverSQLite {
		if err := db.Migrate(database, cfg.DB.Driver); err != nil {
			return stores{}, err
		}
	}
	return stores{
		fields:      repository.NewFieldRepository(database),
		operations:  repository.NewOperationRepository(database),
		cropHistory: repository.NewCropHistoryRepository(database),
	}, nil
}

func serve(parent context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	cache := service.NewCache(cfg.CacheTTL)
	fieldService := service.NewFieldService(st.fields, cache, cfg.ImagePlaceholder, appLogger)
	operationService := service.NewOperationService(st.operations, fieldService)
	cropHistoryService := service.NewCropHistoryService(st.cropHistory)
	analyticsService := service.NewAnalyticsService(fieldService, operationService)

	registry := capture.NewRegistry(cfg.Capture.SessionTTL, appLogger)
	if err := registry.Start(cfg.Capture.SweepSpec); err != nil {
		return fmt.Errorf("invalid CAPTURE_SWEEP_SPEC: %w", err)
	}
	defer registry.Close()
	captureService := service.NewCaptureService(registry, fieldService, appLogger)

	handler := httphandler.NewHandler(
		fieldService,
		operationService,
		cropHistoryService,
		analyticsService,
		captureService,
		report.PDFOptions{FontPath: cfg.ReportFontPath},
		appLogger,
	)
	router := httphandler.NewRouter(handler, middleware.RequestLogger(appLogger), cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting field service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
