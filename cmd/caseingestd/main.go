package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/caseingest/caseupload"
	"github.com/hazyhaar/caseingest/docingest"
)

func main() {
	cfgPath := "caseingestd.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	logger := newLogger(env("LOG_LEVEL", "info"))
	slog.SetDefault(logger)

	cfg := caseupload.DefaultConfig()
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := caseupload.LoadConfig(cfgPath)
		if err != nil {
			slog.Error("config", "path", cfgPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		slog.Info("no config file, using defaults", "path", cfgPath)
	}
	if listen := os.Getenv("LISTEN"); listen != "" {
		cfg.Listen = listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := caseupload.OpenStore(cfg.DBPath)
	if err != nil {
		slog.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pipeCfg := cfg.PipelineConfig()
	pipeCfg.Logger = logger
	pipe := docingest.New(pipeCfg)

	// Surface OCR availability at boot; scanned PDFs degrade per the
	// pipeline's engine-unavailable policy when it is missing.
	if err := pipeCfg.OCR.Available(); err != nil {
		slog.Warn("ocr engine unavailable", "error", err)
	}

	svc := caseupload.NewService(cfg, store, pipe, logger)
	svc.StartRetention(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	svc.Routes(r)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("caseingestd listening", "addr", cfg.Listen, "db", cfg.DBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("serve", "error", err)
		os.Exit(1)
	}
	slog.Info("caseingestd stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
