package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"docchat-platform/internal/config"
	"docchat-platform/internal/database"
	"docchat-platform/internal/logger"
	"docchat-platform/models"
	"docchat-platform/services"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/migrate <command>")
		fmt.Println("Commands:")
		fmt.Println("  migrate      - Create vector store schema (pgvector tables, extension)")
		fmt.Println("  collections  - List per-session vector collections")
		fmt.Println("  sweep        - Run one janitor pass: stale uploads and orphaned collections")
		fmt.Println("  drop <id>    - Drop the vector collection of one session")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg, "docchat-migrate")

	ctx := context.Background()

	// Open runs the pgvector migration as part of connecting
	backends, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open backends: %v", err)
	}
	defer backends.Close(ctx)

	switch command {
	case "migrate":
		fmt.Printf("Vector store %q is ready\n", cfg.VectorBackend)

	case "collections":
		names, err := backends.Vectors.ListCollections(ctx)
		if err != nil {
			log.Fatalf("Failed to list collections: %v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Printf("%d collection(s)\n", len(names))

	case "sweep":
		janitor := services.NewJanitor(backends.Files, backends.Vectors, backends.Sessions, backends.Jobs, cfg.UploadRetention)
		report, err := janitor.Sweep(ctx)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		fmt.Printf("Removed %d file(s) and %d collection(s)\n", report.Files, report.Collections)

	case "drop":
		if len(os.Args) < 3 {
			log.Fatal("drop needs a session id")
		}
		name := models.CollectionName(os.Args[2])
		if err := backends.Vectors.DropCollection(ctx, name); err != nil {
			log.Fatalf("Failed to drop %s: %v", name, err)
		}
		fmt.Printf("Dropped %s\n", name)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}
