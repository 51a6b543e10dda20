package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contaflow/reconcile-api/internal/api"
	"github.com/contaflow/reconcile-api/internal/application/reconcile"
	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/infrastructure/config"
	"github.com/contaflow/reconcile-api/internal/infrastructure/logging"
	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configFile)

	logger := logging.NewLoggerWithScope(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := matcher.NewEngine(matcher.Config{
		AutoAcceptThreshold: cfg.Matcher.AutoAcceptThreshold,
		ProposalFloor:       cfg.Matcher.ProposalFloor,
	})

	service := reconcile.NewService(store, engine, logger)

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, store, service, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	<-done
}
