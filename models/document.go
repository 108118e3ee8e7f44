package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// Segment is one unit of raw text produced by a document loader,
// typically a single page.
type Segment struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
}

// SourceRef points back at the document a chunk was cut from
type SourceRef struct {
	JobID    string `json:"job_id,omitempty" bson:"job_id,omitempty"`
	Filename string `json:"filename,omitempty" bson:"filename,omitempty"`
	Source   string `json:"source,omitempty" bson:"source,omitempty"`
	Page     int    `json:"page,omitempty" bson:"page,omitempty"`
}

// DocumentChunk is a bounded text window ready for embedding. Chunks live
// only for the duration of one job.
type DocumentChunk struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Order   int       `json:"order"`
	Ref     SourceRef `json:"source_ref"`
}

// ChunkID derives a stable point ID from chunk content so that re-running
// a job overwrites instead of duplicating vectors.
func ChunkID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// VectorPoint is what gets written into a vector collection
type VectorPoint struct {
	ID       string        `json:"id" bson:"_id"`
	Content  string        `json:"content" bson:"content"`
	Vector   []float32     `json:"-" bson:"vector"`
	Metadata ChunkMetadata `json:"metadata" bson:"metadata"`
}

// ChunkMetadata is stored next to every vector
type ChunkMetadata struct {
	SourceRef `bson:",inline"`
	Order     int `json:"order" bson:"order"`
}

// ScoredChunk is a similarity search hit
type ScoredChunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

// CollectionPrefix is prepended to the session ID to name its vector collection
const CollectionPrefix = "Collection_"

// CollectionName returns the vector collection that belongs to a session
func CollectionName(sessionID string) string {
	return CollectionPrefix + sessionID
}
