package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/controllers"
	"flowsmith/flowsmith/routes"
	"flowsmith/flowsmith/services/llm"
	"flowsmith/flowsmith/services/metrics"
	"flowsmith/flowsmith/sources/psql"
	"flowsmith/flowsmith/sources/psql/dao"
	"flowsmith/flowsmith/sources/storage"
	"flowsmith/flowsmith/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	if err := cfg.Validate(); err != nil {
		logging.ErrorLogger.Error("invalid configuration", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.NewCollector()
	adapter, err := llm.NewAdapterFromConfig(ctx, cfg, m)
	if err != nil {
		logging.ErrorLogger.Error("generation provider error", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}

	// the archive is optional; a broken one only disables mirroring
	var archive storage.Archive
	if cfg.ArchiveEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
		} else {
			archive = minioClient
		}
	}

	workflowCtrl := controllers.NewWorkflowController(adapter, dao.NewChatMessageDAO(db.DB), dao.NewWorkflowDAO(db.DB), archive, m)
	statusCtrl := controllers.NewStatusController(dao.NewStatusCheckDAO(db.DB))
	healthCtrl := controllers.NewHealthController(db)

	r := routes.NewRouter(routes.Dependencies{
		Workflows:   workflowCtrl,
		Status:      statusCtrl,
		Health:      healthCtrl,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", adapter.Provider()),
			zap.String("model", adapter.Model()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
