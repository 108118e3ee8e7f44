package main

import (
	"context"
	"log"

	"docchat-platform/internal/config"
	"docchat-platform/internal/database"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg, "docchat-worker")

	shutdownTracer, err := telemetry.InitTracer(cfg, "docchat-worker")
	if err != nil {
		log.Fatal("Failed to initialize tracer:", err)
	}
	defer shutdownTracer(context.Background())

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	ctx := context.Background()
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

	worker, err := backends.NewIngestWorker(cfg, embedder, metrics)
	if err != nil {
		log.Fatal("Failed to build ingestion worker:", err)
	}

	redisOpt, err := config.AsynqRedisOpt(cfg)
	if err != nil {
		log.Fatal(err)
	}
	server, mux := database.NewQueueServer(cfg, redisOpt, worker)

	logger.Info("Starting ingestion worker",
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
		"vector_backend", cfg.VectorBackend,
	)

	// Run blocks until SIGTERM/SIGINT; in-flight jobs are cancelled and requeued
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
