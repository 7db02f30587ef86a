package store

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists articles through bun. Reads go through
// go-repository-bun; the compare-and-swap is issued directly against the
// database as a single conditional update so the version check and the
// mutation are atomic at the storage layer, never read-then-write from the
// client.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Article]
}

// NewBunRepository constructs the repository over the supplied database handle.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:   db,
		repo: newArticleRepository(db),
	}
}

func newArticleRepository(db *bun.DB) repository.Repository[*Article] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Article]{
		NewRecord: func() *Article { return &Article{} },
		GetID: func(a *Article) uuid.UUID {
			return a.ID
		},
		SetID: func(a *Article, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(a *Article) string {
			if a == nil {
				return ""
			}
			return a.ID.String()
		},
	})
}

// Insert stores a new article record.
func (r *BunRepository) Insert(ctx context.Context, record *Article) (*Article, error) {
	if record.Version == 0 {
		record.Version = 1
	}
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, mapRepositoryError(err, record.ID.String())
	}
	return created, nil
}

// GetByID retrieves an article by identifier.
func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	result, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return result, nil
}

// CompareAndSwap issues the conditional update. Zero rows affected signals
// that another writer's swap landed first; the stored version is fetched
// afterwards on a best-effort basis to enrich the conflict report.
func (r *BunRepository) CompareAndSwap(ctx context.Context, id uuid.UUID, expectedVersion int, mutation Mutation) (*Article, error) {
	updated := &Article{}

	query := r.db.NewUpdate().
		Model(updated).
		Set("version = version + 1").
		Set("last_edited_by = ?", mutation.EditedBy).
		Set("last_edited_at = ?", mutation.EditedAt).
		Set("updated_at = ?", mutation.EditedAt).
		Where("id = ?", id).
		Where("version = ?", expectedVersion).
		Returning("*")

	if mutation.Content != nil {
		query = query.Set("content = ?", *mutation.Content)
	}
	if mutation.EditingStatus != nil {
		query = query.Set("editing_status = ?", *mutation.EditingStatus)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("article compare-and-swap: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("article compare-and-swap: %w", err)
	}
	if affected == 0 {
		conflict := &VersionConflictError{
			ArticleID:       id,
			ExpectedVersion: expectedVersion,
		}
		if current, getErr := r.GetByID(ctx, id); getErr == nil {
			conflict.ActualVersion = current.Version
		} else {
			var notFound *NotFoundError
			if errors.As(getErr, &notFound) {
				return nil, notFound
			}
		}
		return nil, conflict
	}

	return updated, nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: "article",
			Key:      key,
		}
	}
	return fmt.Errorf("article repository error: %w", err)
}
