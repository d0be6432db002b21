package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"opsboard/internal/config"
	"opsboard/internal/infrastructure/database"
	"opsboard/internal/infrastructure/logger"
	"opsboard/internal/infrastructure/memory"
	"opsboard/internal/media"
	"opsboard/internal/notify"
	"opsboard/internal/order"
	orderrepo "opsboard/internal/order/repository"
	"opsboard/internal/product"
	productrepo "opsboard/internal/product/repository"
	"opsboard/internal/server"
	storerepo "opsboard/internal/store/repository"
	"opsboard/internal/workspace"
	"opsboard/internal/writeback"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	backend, health, closeBackend := openBackend(cfg.Database, zapLogger)
	defer closeBackend()

	hub := notify.NewHub(cfg.Notify.Capacity, zapLogger)
	manager := workspace.NewManager(backend, hub, cfg.Editing, writeback.RealClock(), zapLogger)

	uploader, err := media.NewDiskUploader(cfg.Media.Dir, cfg.Media.BaseURL, cfg.Media.MaxBytes, zapLogger)
	if err != nil {
		zapLogger.Fatal("preparing media store", zap.Error(err))
	}

	orderCtrl := order.NewModule(manager, uploader, cfg.Media.MaxBytes, zapLogger)
	productCtrl := product.NewModule(manager, zapLogger)

	router := server.NewRouter(server.RouterConfig{
		Orders:        orderCtrl,
		Products:      productCtrl,
		Notifications: server.NewNotificationsHandler(hub, zapLogger),
		MediaDir:      uploader.Dir(),
		MediaPath:     cfg.Media.BaseURL,
		Health:        health,
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	// pending edits are written before the database closes
	if err := manager.Close(ctx); err != nil {
		zapLogger.Error("flushing pending edits failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func openBackend(cfg config.DatabaseConfig, zapLogger *zap.Logger) (workspace.Backend, func(context.Context) error, func()) {
	if cfg.Driver == "memory" {
		zapLogger.Info("using in-memory store")
		return memoryBackend(), nil, func() {}
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		if !cfg.FallbackToMemory {
			zapLogger.Fatal("connecting to database", zap.Error(err))
		}
		zapLogger.Warn("database unreachable, falling back to in-memory store", zap.Error(err))
		return memoryBackend(), nil, func() {}
	}
	zapLogger.Info("database connected", zap.String("dialect", db.Dialect.String()))

	backend := workspace.Backend{
		Orders:   orderrepo.NewSQLOrderRepository(db),
		Products: productrepo.NewSQLRepository(db, zapLogger),
		Stores:   storerepo.NewSQLStoreRepository(db),
	}
	return backend, db.PingContext, func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("closing database", zap.Error(err))
		}
	}
}

func memoryBackend() workspace.Backend {
	mem := memory.New()
	return workspace.Backend{
		Orders:   mem.Orders(),
		Products: mem.Products(),
		Stores:   mem.Stores(),
	}
}
