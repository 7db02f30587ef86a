package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory implementation for
// scaffolding and tests. Its CompareAndSwap holds the write lock across the
// version check and the mutation, so it provides the same atomicity the SQL
// implementation gets from a single conditional update.
type MemoryRepository struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]*Article
}

// NewMemoryRepository creates an empty in-memory article repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		articles: make(map[uuid.UUID]*Article),
	}
}

// Insert stores the supplied record, defaulting the version to 1.
func (m *MemoryRepository) Insert(_ context.Context, record *Article) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := record.Clone()
	if copied.Version == 0 {
		copied.Version = 1
	}
	m.articles[copied.ID] = copied
	return copied.Clone(), nil
}

// GetByID retrieves an article by identifier.
func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.articles[id]
	if !ok {
		return nil, &NotFoundError{Resource: "article", Key: id.String()}
	}
	return rec.Clone(), nil
}

// CompareAndSwap applies the mutation and bumps the version only when the
// stored version still equals expectedVersion.
func (m *MemoryRepository) CompareAndSwap(_ context.Context, id uuid.UUID, expectedVersion int, mutation Mutation) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.articles[id]
	if !ok {
		return nil, &NotFoundError{Resource: "article", Key: id.String()}
	}
	if rec.Version != expectedVersion {
		return nil, &VersionConflictError{
			ArticleID:       id,
			ExpectedVersion: expectedVersion,
			ActualVersion:   rec.Version,
		}
	}

	updated := rec.Clone()
	if mutation.Content != nil {
		updated.Content = *mutation.Content
	}
	if mutation.EditingStatus != nil {
		updated.EditingStatus = *mutation.EditingStatus
	}
	updated.Version = expectedVersion + 1
	updated.LastEditedBy = mutation.EditedBy
	updated.LastEditedAt = mutation.EditedAt
	updated.UpdatedAt = mutation.EditedAt

	m.articles[id] = updated
	return updated.Clone(), nil
}
