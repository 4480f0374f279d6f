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

	"call-insights/internal/ai"
	"call-insights/internal/analysis"
	"call-insights/internal/auth"
	"call-insights/internal/calls"
	"call-insights/internal/config"
	"call-insights/internal/directory"
	"call-insights/internal/embeddings"
	"call-insights/internal/httpapi"
	"call-insights/internal/pipeline"
	"call-insights/internal/proclog"
	"call-insights/internal/queue"
	"call-insights/internal/recordings"
	"call-insights/internal/storage"
	"call-insights/internal/transcribe"
	"call-insights/internal/worker"
	"call-insights/pkg/logger"
	"call-insights/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional for containerized deploys; local runs keep a .env file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store, err := storage.NewMinioStore(rootCtx, storage.MinioConfig{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		log.Error("object store init failed", "err", err)
		os.Exit(1)
	}

	jobs, err := queue.NewStreamsQueue(rootCtx, rdb, queue.StreamsConfig{
		Stream:      cfg.Queue.Stream,
		DLQStream:   cfg.Queue.DLQStream,
		Group:       cfg.Queue.Group,
		Consumer:    cfg.Queue.Consumer,
		MaxAttempts: cfg.Queue.MaxAttempts,
	})
	if err != nil {
		log.Error("queue init failed", "err", err)
		os.Exit(1)
	}

	source, err := recordings.NewHTTPSource(recordings.HTTPSourceConfig{BaseURL: cfg.Adapters.RecordingSourceURL})
	if err != nil {
		log.Error("recording source init failed", "err", err)
		os.Exit(1)
	}
	transcriber, err := transcribe.NewHTTPTranscriber(transcribe.HTTPTranscriberConfig{
		BaseURL:     cfg.Adapters.TranscribeURL,
		RefineModel: cfg.Adapters.TranscribeRefineModel,
	})
	if err != nil {
		log.Error("transcriber init failed", "err", err)
		os.Exit(1)
	}
	lookup, err := directory.NewHTTPLookup(directory.HTTPLookupConfig{BaseURL: cfg.Adapters.DirectoryURL})
	if err != nil {
		log.Error("directory lookup init failed", "err", err)
		os.Exit(1)
	}
	aiClient, err := ai.NewClient(ai.ClientConfig{
		APIKey:          cfg.OpenAI.APIKey,
		BaseURL:         cfg.OpenAI.BaseURL,
		EmbeddingModel:  cfg.OpenAI.EmbeddingModel,
		CompletionModel: cfg.OpenAI.CompletionModel,
	})
	if err != nil {
		log.Error("openai client init failed", "err", err)
		os.Exit(1)
	}

	callRepo := calls.NewPostgresRepo(db)
	logService := proclog.NewService(proclog.NewPostgresRepo(db))
	agentRepo := directory.NewPostgresAgentRepo(db)
	companyRepo := directory.NewPostgresCompanyRepo(db)
	vectorRepo := embeddings.NewPostgresRepo(db)
	resultRepo := analysis.NewPostgresRepo(db)

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Calls:       callRepo,
		Logs:        logService,
		Agents:      agentRepo,
		Companies:   companyRepo,
		Lookup:      lookup,
		Source:      source,
		Transcriber: transcriber,
		Store:       store,
		Embedder:    aiClient.Embeddings(),
		Completer:   aiClient.Completions(),
		Vectors:     vectorRepo,
		Analyzer:    analysis.NewAnalyzer(aiClient.Completions()),
		Results:     resultRepo,
	}, pipeline.Options{
		AgentExtensionPrefix: cfg.Pipeline.AgentExtensionPrefix,
		ChunkSize:            cfg.Pipeline.ChunkSizeTokens,
		ChunkOverlap:         cfg.Pipeline.ChunkOverlapTokens,
		EmbeddingsEnabled:    cfg.Pipeline.EmbeddingsEnabled,
	})

	pool := worker.NewPool(jobs, orch.Process, cfg.Pipeline.Workers, log)
	pool.Start(rootCtx)

	handlers := httpapi.Handlers{
		Calls:       callRepo,
		Logs:        logService,
		Results:     resultRepo,
		Producer:    jobs,
		Reprocessor: pipeline.NewReprocessor(callRepo, logService, resultRepo, vectorRepo, jobs),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, handlers, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "workers", cfg.Pipeline.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Workers stop via rootCtx; wait so in-flight jobs finish cleanly.
	pool.Wait()
	log.Info("shutdown complete")
}
