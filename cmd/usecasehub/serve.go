package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/logan/usecasehub/internal/account"
	"github.com/logan/usecasehub/internal/agent"
	"github.com/logan/usecasehub/internal/api"
	"github.com/logan/usecasehub/internal/config"
	"github.com/logan/usecasehub/internal/logger"
	"github.com/logan/usecasehub/internal/refresh"
	"github.com/logan/usecasehub/internal/restclient"
	"github.com/logan/usecasehub/internal/service"
	"github.com/logan/usecasehub/internal/storage"
	"github.com/logan/usecasehub/internal/telemetry"
	"github.com/logan/usecasehub/internal/tools"
	"github.com/logan/usecasehub/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tab gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Version:      version,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Error("telemetry shutdown", "error", err)
		}
	}()

	svcs := &api.Services{Logger: log, Version: version}

	var store storage.Store
	if cfg.DatabaseURL == "memory" {
		store = storage.NewMemory()
		log.Warn("tab state kept in memory only")
	} else {
		sqlStore, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open tab state store: %w", err)
		}
		defer sqlStore.Close()
		store = sqlStore
		svcs.DB = sqlStore

		janitor := service.NewStateJanitor(sqlStore, log, cfg.JanitorEvery(), cfg.StateTTL())
		janitor.Start()
		defer janitor.Stop()
	}

	sig := refresh.NewSignal()
	defer sig.Close()

	agentClient := agent.NewClient(cfg.AgentBaseURL)
	classifier := tools.NewClassifier()
	syncCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	classifier.Sync(syncCtx, agentClient, log)
	cancel()

	backend := restclient.New(cfg.AgentBaseURL)

	svcs.Tabs = service.NewTabService(store, agentClient, classifier, sig, log, cfg.IdleTTL())
	svcs.UseCases = usecase.NewClient(backend)
	svcs.Accounts = account.NewClient(backend)
	svcs.Signal = sig
	svcs.Classifier = classifier

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           otelhttp.NewHandler(api.NewRouter(cfg, svcs), "usecasehub"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening", "addr", cfg.ListenAddr, "agent", cfg.AgentBaseURL, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	// Closing the signal ends open refresh streams before the server waits on them.
	sig.Close()
	sctx, scancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer scancel()
	return srv.Shutdown(sctx)
}
