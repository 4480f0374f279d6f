package embeddings

import "time"

// ChunkEmbedding is one embedded transcript chunk. Sequence is the
// 0-based chunk position within the call transcript.
type ChunkEmbedding struct {
	ID        string
	CallID    string
	Sequence  int
	ChunkText string
	Vector    []float32
	ModelName string
	CreatedAt time.Time
}
