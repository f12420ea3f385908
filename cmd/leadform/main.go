package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/znz-systems/leadform/internal/config"
	"github.com/znz-systems/leadform/internal/lead"
	"github.com/znz-systems/leadform/internal/mail"
	"github.com/znz-systems/leadform/internal/metrics"
	"github.com/znz-systems/leadform/internal/store/csvlog"
	"github.com/znz-systems/leadform/internal/store/sqldb"
	"github.com/znz-systems/leadform/internal/web"
	"github.com/znz-systems/leadform/internal/web/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := sqldb.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Stores
	leadStore := lead.NewStore(db, csvlog.New(cfg.CSVPath))
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	err = leadStore.Init(initCtx)
	cancelInit()
	if err != nil {
		slog.Error("failed to initialise lead store", "error", err)
		os.Exit(1)
	}

	// Services
	dispatcher := mail.NewDispatcher(mail.Config{
		Host:          cfg.SMTPHost,
		Port:          cfg.SMTPPort,
		From:          cfg.SMTPUser,
		Password:      cfg.SMTPPass,
		To:            cfg.SMTPTo,
		Timeout:       cfg.SMTPTimeout,
		RatePerMinute: cfg.SMTPRatePerMinute,
	})
	if !dispatcher.Enabled() {
		slog.Warn("SMTP credentials not set; leads will be stored without email notification")
	}
	recorder := metrics.New()
	leadService := lead.NewService(leadStore, dispatcher, recorder)

	// Router
	router := web.NewRouter(web.RouterDeps{
		APIHandler:    handlers.NewAPIHandler(leadService, cfg.MaxBodyBytes),
		HealthHandler: handlers.NewHealthHandler(db),
		Metrics:       recorder.Handler(),
		Origins:       cfg.Origins,
	})

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	writeTimeout := 15 * time.Second
	if cfg.SMTPTimeout > 0 {
		// The mail send happens inside the request.
		writeTimeout += cfg.SMTPTimeout
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("leadform starting",
			"addr", addr,
			"database", cfg.DatabaseDriver,
			"csv", cfg.CSVPath,
			"origins", cfg.Origins,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
