// File: internal/infra/firestore/memory_repo.go
package firestore

import (
	"context"
	"encoding/json"
	"time"

	"unique-ue/internal/domain/model"
	"unique-ue/internal/domain/ports/repository"

	"github.com/oklog/ulid/v2"
)

var _ repository.MemoryRepository = (*memoryRepo)(nil)

type memoryRepo struct {
	client     *Client
	collection string
	now        func() time.Time
}

func NewMemoryRepo(client *Client, collection string) *memoryRepo {
	return &memoryRepo{client: client, collection: collection, now: time.Now}
}

// Append writes one document per extraction event. Nodes and links are
// stored serialized; merging fragments into a graph is the reader's job.
func (r *memoryRepo) Append(ctx context.Context, update *model.MemoryUpdate) error {
	nodes, err := json.Marshal(update.Nodes)
	if err != nil {
		return err
	}
	links, err := json.Marshal(update.Links)
	if err != nil {
		return err
	}

	createdAt := update.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	fields, err := EncodeFields(map[string]any{
		"user_id":    update.UserID,
		"nodes":      string(nodes),
		"links":      string(links),
		"created_at": createdAt,
	})
	if err != nil {
		return err
	}

	id := ulid.MustNew(ulid.Timestamp(createdAt), ulid.DefaultEntropy()).String()
	_, err = r.client.Create(ctx, r.collection, id, fields)
	return err
}
