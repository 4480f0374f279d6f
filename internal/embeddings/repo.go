package embeddings

import (
	"context"
	"errors"
)

var ErrInvalidArgument = errors.New("embeddings: invalid argument")

// Repository stores chunk embeddings. Rows are append-only per run;
// DeleteByCall exists only so reprocessing can start from a clean slate.
type Repository interface {
	Create(ctx context.Context, e *ChunkEmbedding) error
	ListByCall(ctx context.Context, callID string) ([]ChunkEmbedding, error)
	DeleteByCall(ctx context.Context, callID string) error
}
