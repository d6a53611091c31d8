package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bodyshop-platform/api/internal/app"
	"github.com/bodyshop-platform/api/internal/config"
	"github.com/bodyshop-platform/api/internal/identity"
	"github.com/bodyshop-platform/api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		cancelPing()
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}
	cancelPing()

	st := store.NewPostgres(pool, tableSpecs(cfg)...)
	verifier := identity.NewVerifier(cfg.AuthURL, cfg.AuthAPIKey)

	router, err := app.NewRouter(cfg, st, verifier, logger)
	if err != nil {
		logger.Error("build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		logger.Info("api_started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func tableSpecs(cfg config.Config) []store.TableSpec {
	return []store.TableSpec{
		{
			Name:          cfg.RawTable,
			Columns:       []string{"id", "source_hash", "created_at"},
			PayloadColumn: "payload",
		},
		{
			Name: cfg.JobsTable,
			Columns: []string{
				"id", "job_card_number", "reg_no", "model", "color", "chassis",
				"engine_num", "customer_name", "customer_mobile", "job_type",
				"advisor", "technician", "status", "current_stage",
				"labour_amt", "part_amt", "bill_amount", "profit",
				"group_name", "callback_date", "location",
				"created_by", "created_at", "updated_at", "raw_id",
			},
			PayloadColumn: "payload",
		},
		{
			Name:    cfg.PresetsTable,
			Columns: []string{"id", "user_id", "name", "mapping", "updated_at"},
		},
		{
			Name:    cfg.InventoryTable,
			Columns: []string{"id", "part_no", "name", "quantity", "unit_price", "updated_at"},
		},
		{
			Name: cfg.AuditTable,
			Columns: []string{
				"id", "user_id", "action", "entity_type", "entity_id",
				"request_id", "metadata", "created_at",
			},
		},
	}
}
