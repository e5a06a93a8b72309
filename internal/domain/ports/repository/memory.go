package repository

import (
	"context"

	"unique-ue/internal/domain/model"
)

// MemoryRepository persists corporate-memory graph fragments. Append-only:
// one document per extraction event, keyed by user.
type MemoryRepository interface {
	Append(ctx context.Context, update *model.MemoryUpdate) error
}
