package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"docchat-platform/internal/logger"
	"docchat-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps each vector collection onto a MongoDB collection. With
// Atlas vector search enabled it queries through $vectorSearch, otherwise
// it scores every point in process.
type MongoStore struct {
	db            *mongo.Database
	vectorSearch  bool
	indexName     string
	numDimensions int
}

type MongoOption func(*MongoStore)

// WithAtlasVectorSearch queries through the named Atlas vector index
func WithAtlasVectorSearch(indexName string, dims int) MongoOption {
	return func(s *MongoStore) {
		s.vectorSearch = true
		s.indexName = indexName
		s.numDimensions = dims
	}
}

func NewMongoStore(db *mongo.Database, opts ...MongoOption) *MongoStore {
	s := &MongoStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MongoStore) EnsureCollection(ctx context.Context, name string) error {
	err := s.db.CreateCollection(ctx, name)
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
		return fmt.Errorf("create collection: %w", err)
	}

	if s.vectorSearch {
		model := mongo.SearchIndexModel{
			Definition: bson.D{{Key: "fields", Value: bson.A{
				bson.D{
					{Key: "type", Value: "vector"},
					{Key: "path", Value: "vector"},
					{Key: "numDimensions", Value: s.numDimensions},
					{Key: "similarity", Value: "cosine"},
				},
			}}},
			Options: options.SearchIndexes().SetName(s.indexName).SetType("vectorSearch"),
		}
		if _, err := s.db.Collection(name).SearchIndexes().CreateOne(ctx, model); err != nil {
			// the index usually exists already on a redelivered job
			logger.Debug("Vector index not created", "collection", name, "error", err)
		}
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, name string, points []models.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	batch := make([]mongo.WriteModel, 0, len(points))
	for _, p := range points {
		batch = append(batch, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(p).
			SetUpsert(true))
	}
	if _, err := s.db.Collection(name).BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	return nil
}

func (s *MongoStore) Search(ctx context.Context, name string, vector []float32, k int) ([]models.ScoredChunk, error) {
	if s.vectorSearch {
		return s.atlasSearch(ctx, name, vector, k)
	}

	cur, err := s.db.Collection(name).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	var points []models.VectorPoint
	if err := cur.All(ctx, &points); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}
	return RankByCosine(vector, points, k), nil
}

func (s *MongoStore) atlasSearch(ctx context.Context, name string, vector []float32, k int) ([]models.ScoredChunk, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: "vector"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: k * 10},
			{Key: "limit", Value: k},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "content", Value: 1},
			{Key: "metadata", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
	cur, err := s.db.Collection(name).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	var rows []struct {
		Content  string               `bson:"content"`
		Metadata models.ChunkMetadata `bson:"metadata"`
		Score    float64              `bson:"score"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode hits: %w", err)
	}
	hits := make([]models.ScoredChunk, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, models.ScoredChunk{Content: r.Content, Metadata: r.Metadata, Score: r.Score})
	}
	return hits, nil
}

func (s *MongoStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": bson.M{"$regex": "^" + models.CollectionPrefix}})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

func (s *MongoStore) DropCollection(ctx context.Context, name string) error {
	if err := s.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
