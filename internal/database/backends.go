package database

import (
	"context"
	"fmt"

	"docchat-platform/internal/config"
	"docchat-platform/internal/jobs"
	"docchat-platform/internal/logger"
	"docchat-platform/internal/session"
	"docchat-platform/internal/storage"
	"docchat-platform/internal/vectorstore"

	"github.com/redis/go-redis/v9"
)

// Backends is every store a binary needs, opened from one config
type Backends struct {
	Redis    *redis.Client
	Vectors  vectorstore.Store
	Files    storage.Store
	Sessions session.Store
	Jobs     jobs.Store

	closers []func(context.Context) error
}

// Open connects to every configured backend. On error anything already
// opened is closed again.
func Open(ctx context.Context, cfg *config.Config) (_ *Backends, err error) {
	b := &Backends{}
	defer func() {
		if err != nil {
			b.Close(context.Background())
		}
	}()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	b.Redis = rdb
	b.closers = append(b.closers, func(context.Context) error { return rdb.Close() })

	if b.Vectors, err = b.openVectors(ctx, cfg); err != nil {
		return nil, err
	}
	if b.Files, err = OpenFileStore(ctx, cfg); err != nil {
		return nil, err
	}

	switch cfg.SessionStore {
	case "memory":
		b.Sessions = session.NewMemoryStore(cfg.SessionMaxEntries, cfg.SessionTTL)
		b.Jobs = jobs.NewMemoryStore(cfg.SessionMaxEntries, cfg.JobTTL)
	default:
		b.Sessions = session.NewRedisStore(b.Redis, cfg.SessionTTL)
		b.Jobs = jobs.NewRedisStore(b.Redis, cfg.JobTTL)
	}

	logger.Info("Backends ready",
		"vector_backend", cfg.VectorBackend,
		"session_store", cfg.SessionStore,
		"storage", b.Files.Destination(),
	)
	return b, nil
}

func (b *Backends) openVectors(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.VectorBackend {
	case "memory":
		return vectorstore.NewMemoryStore(), nil
	case "pgvector":
		pool, err := config.ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { pool.Close(); return nil })
		store := vectorstore.NewPgVectorStore(pool, cfg.VectorDimensions)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("pgvector migration failed: %w", err)
		}
		return store, nil
	default:
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Disconnect)
		var opts []vectorstore.MongoOption
		if cfg.VectorSearchEnabled {
			opts = append(opts, vectorstore.WithAtlasVectorSearch(cfg.VectorIndexName, cfg.VectorDimensions))
		}
		return vectorstore.NewMongoStore(client.Database(cfg.DBName), opts...), nil
	}
}

// OpenFileStore returns the configured upload storage
func OpenFileStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey)
	}
	return storage.NewLocalStore(cfg.FileStorageDir)
}

// Close releases connections in reverse opening order
func (b *Backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	}
	b.closers = nil
}
