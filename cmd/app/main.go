// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unique-ue/internal/config"
	"unique-ue/internal/domain/ports/adapter"
	"unique-ue/internal/domain/ports/repository"
	aiAdapters "unique-ue/internal/infra/adapters/ai"
	fs "unique-ue/internal/infra/firestore"
	"unique-ue/internal/infra/googleauth"
	"unique-ue/internal/infra/logging"
	"unique-ue/internal/infra/metrics"
	red "unique-ue/internal/infra/redis"
	"unique-ue/internal/infra/web"
	"unique-ue/internal/infra/worker"
	"unique-ue/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}
	metrics.MustRegister()

	// ---- Document store (optional: absence enables the sync fallback) ----
	var jobRepo repository.JobRepository
	var memRepo repository.MemoryRepository
	if cfg.Google.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.Google.CredentialsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("read service account credentials")
		}
		creds, err := googleauth.ParseCredentials(raw)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse service account credentials")
		}
		var opts []googleauth.Option
		if cfg.Google.TokenURL != "" {
			opts = append(opts, googleauth.WithTokenURL(cfg.Google.TokenURL))
		}
		if cfg.Google.Scope != "" {
			opts = append(opts, googleauth.WithScope(cfg.Google.Scope))
		}
		tokens, err := googleauth.NewTokenSource(creds, opts...)
		if err != nil {
			logger.Fatal().Err(err).Msg("token source")
		}
		client := fs.NewClient(tokens, cfg.Google.ProjectID, cfg.Google.DatabaseID, cfg.Google.BaseURL, logger)
		jobRepo = fs.NewJobRepo(client, cfg.Queue.JobCollection)
		memRepo = fs.NewMemoryRepo(client, cfg.Queue.MemoryCollection)
		logger.Info().Str("project", cfg.Google.ProjectID).Msg("document store configured")
	} else {
		logger.Warn().Msg("no document store configured; chat requests run synchronously")
	}

	// ---- Redis sweep lock (optional) ----
	var locker red.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
	}

	// ---- AI adapter (Gemini -> OpenAI-compatible -> noop in dev) ----
	var aiSvc adapter.AIServiceAdapter
	switch {
	case cfg.AI.GeminiKey != "":
		aiSvc, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: Gemini")
	case cfg.AI.OpenAIKey != "":
		aiSvc, err = aiAdapters.NewOpenAICompatAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.OpenAIURL, cfg.AI.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("base", cfg.AI.OpenAIURL).Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI-compatible")
	case cfg.Runtime.Dev:
		aiSvc = aiAdapters.NoopAI{}
		logger.Warn().Msg("AI adapter: noop (dev mode)")
	default:
		logger.Fatal().Msgf("no AI provider configured: set ai.gemini_key or ai.openai_key in %s", *cfgPath)
	}

	// ---- Use cases ----
	reflexes := usecase.NewReflexTable(usecase.DefaultReflexes())
	responder := usecase.NewResponder(aiSvc, reflexes, cfg.AI.DefaultModel, logger)
	queueUC := usecase.NewQueueUseCase(jobRepo, responder, logger)

	// ---- HTTP server ----
	srv := web.NewServer(queueUC, logger)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: mux}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Sweep loop (only with durable storage) ----
	if jobRepo != nil {
		pool := worker.NewPool(1)
		pool.Start(ctx)
		sweeper := worker.NewSweeper(
			jobRepo, memRepo, responder, locker,
			cfg.Queue.SweepInterval, cfg.Queue.StaleAfter,
			cfg.Queue.MaxRetries, cfg.Queue.LockTTL,
			logger,
		)
		go sweeper.Start(ctx, pool)
		defer pool.Stop()
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
