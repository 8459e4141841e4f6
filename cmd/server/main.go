package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dqalex/OmniSpark/internal/api"
	"github.com/dqalex/OmniSpark/internal/config"
	"github.com/dqalex/OmniSpark/internal/engine"
	"github.com/dqalex/OmniSpark/internal/gemini"
	"github.com/dqalex/OmniSpark/internal/httpclient"
	"github.com/dqalex/OmniSpark/internal/session"
	"github.com/dqalex/OmniSpark/internal/store"
	"github.com/dqalex/OmniSpark/internal/worker"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo, err := store.New(db)
	if err != nil {
		logger.Error("init store", "error", err)
		os.Exit(1)
	}

	// Provider clients. Without a key the server runs against stubs so the
	// full flow stays exercisable locally.
	var (
		text  engine.TextClient
		image engine.ImageClient
		video engine.VideoClient
	)
	if cfg.UseStubs() {
		logger.Warn("GEMINI_API_KEY not set, using stub provider")
		stub := &engine.StubProvider{}
		text, image, video = stub, stub, stub
	} else {
		client := gemini.New(gemini.Options{
			APIKey:       cfg.GeminiKey,
			BaseURL:      cfg.GeminiBaseURL,
			APIVersion:   cfg.GeminiAPIVersion,
			TextModel:    cfg.TextModel,
			ImageModel:   cfg.ImageModel,
			ImageModelHQ: cfg.ImageModelHQ,
			VideoModel:   cfg.VideoModel,
			HTTPClient:   httpclient.New(httpclient.Options{Timeout: cfg.HTTPTimeout}),
			Logger:       logger,
		})
		text, image, video = client, client, client
	}

	studio := engine.NewVisualStudio(image)
	concepts := engine.NewConceptGenerator(text)
	decomposer := engine.NewDecomposer(text, studio, logger)
	synth := engine.NewSynthesizer(video, cfg.VideoPollInterval, cfg.VideoPollMax, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := worker.NewQueue()
	w := worker.New(queue, synth, time.Second, logger)
	go w.Start(ctx)

	srv := api.New(api.Options{
		Sessions:   session.NewStore(),
		Repo:       repo,
		Concepts:   concepts,
		Studio:     studio,
		Decomposer: decomposer,
		Importer:   engine.NewBriefImporter(cfg.ImportTimeout),
		Queue:      queue,
		Broker:     gemini.StaticBroker{Key: cfg.GeminiKey},
		Defaults: api.Defaults{
			AspectRatio:     cfg.AspectRatio,
			VideoResolution: cfg.VideoResolution,
		},
		CORSOrigin: cfg.CORSOrigin,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", "port", cfg.Port, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
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
