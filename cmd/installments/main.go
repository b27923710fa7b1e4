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

	"github.com/cloud-ru/installments-go/internal/clients"
	"github.com/cloud-ru/installments-go/internal/config"
	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/logging"
	"github.com/cloud-ru/installments-go/internal/tools"
	"github.com/cloud-ru/installments-go/internal/tracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	tp, err := tracing.InitTracing(cfg.OTELServiceName, cfg.OTELEndpoint, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := clients.NewHTTPClient(cfg.HTTPTimeout)

	var financing clients.FinancingReader = clients.NewFinancingClient(cfg.FinancingURL, httpClient, log)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis is unavailable, financing cache may miss")
		}
		financing = clients.NewCachedFinancing(financing, rdb, cfg.FinancingCacheTTL, log)
	}

	var ids ledger.IDGenerator = ledger.NewSequence()
	if cfg.IDStrategy == config.IDStrategyUUID {
		ids = ledger.NewUUIDs()
	}

	session := tools.NewSession(cfg, tools.Dependencies{
		Generator: clients.NewAmortizationClient(cfg.AmortizationURL, httpClient, log),
		Financing: financing,
		Submitter: clients.NewAmendmentClient(cfg.AmendmentURL, httpClient, log),
		IDs:       ids,
		Logger:    log,
		Tracer:    tracing.Tracer,
	})
	registry := session.Registry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("metrics endpoint started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	log.WithField("tools", len(registry)).Info("installments engine ready")
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, os.Stdin, os.Stdout, registry, log)
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("request loop stopped")
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("metrics server shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer provider shutdown failed")
	}
	log.Info("installments engine stopped")
}
