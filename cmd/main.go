package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"docchat-platform/internal/ai"
	"docchat-platform/internal/config"
	"docchat-platform/internal/database"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/queue"
	"docchat-platform/internal/telemetry"
	"docchat-platform/internal/vectorstore"
	"docchat-platform/middleware"
	"docchat-platform/routes"
	"docchat-platform/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const serviceName = "docchat-platform"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg, serviceName)

	shutdownTracer, err := telemetry.InitTracer(cfg, serviceName)
	if err != nil {
		log.Fatal("Failed to initialize tracer:", err)
	}
	defer shutdownTracer(context.Background())

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open backends:", err)
	}
	defer backends.Close(context.Background())

	embedder, closeEmbedder, err := database.NewEmbedder(ctx, cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer closeEmbedder()

	chatModel, err := ai.NewGeminiChat(ctx, cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiTier, metrics)
	if err != nil {
		log.Fatal("Failed to initialize Gemini chat:", err)
	}
	defer chatModel.Close()

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal(err)
	}
	queueClient := queue.NewClient(redisOpt, cfg.QueueName, cfg.JobTimeout, cfg.JobTTL)
	defer queueClient.Close()

	ingestion := services.NewIngestionService(backends.Files, backends.Sessions, backends.Jobs, queueClient, cfg.AllowedTypes, cfg.MaxFileSize)
	retriever := vectorstore.NewRetriever(embedder, backends.Vectors, cfg.EmbedTimeout)
	chat := services.NewChatService(backends.Sessions, retriever, chatModel, services.ChatOptions{
		SystemPrompt:    cfg.SystemPrompt,
		TopK:            cfg.RetrievalTopK,
		MaxContextChars: cfg.MaxContextChars,
		Timeout:         cfg.ChatTimeout,
	}, metrics)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES:", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware(serviceName))
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1<<20))
	if cfg.RateLimitReqs > 0 {
		router.Use(middleware.RateLimitMiddleware(backends.Redis, cfg.RateLimitReqs,
			time.Duration(cfg.RateLimitWindow)*time.Second))
	}
	routes.Register(router, ingestion, chat, cfg.MaxFileSize)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitor := services.NewJanitor(backends.Files, backends.Vectors, backends.Sessions, backends.Jobs, cfg.UploadRetention)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := janitor.Start(cfg.JanitorInterval); err != nil {
			return err
		}
		<-gctx.Done()
		janitor.Stop()
		return nil
	})

	if cfg.EmbeddedWorker {
		worker, err := backends.NewIngestWorker(cfg, embedder, metrics)
		if err != nil {
			log.Fatal("Failed to build ingestion worker:", err)
		}
		server, mux := database.NewQueueServer(cfg, redisOpt, worker)
		g.Go(func() error {
			logger.Info("Starting embedded ingestion worker", "queue", cfg.QueueName)
			if err := server.Start(mux); err != nil {
				return err
			}
			<-gctx.Done()
			server.Shutdown()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", "error", err)
		return
	}
	logger.Info("Server exited")
}
