package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/domain"
	"github.com/goliatone/go-collab/internal/store"
	"github.com/google/uuid"
)

func seedArticle(t *testing.T, repo *store.MemoryRepository, version int) *articles.Article {
	t.Helper()
	record := &articles.Article{
		ID:            uuid.New(),
		Content:       "original",
		Version:       version,
		EditingStatus: domain.StatusDraft,
		OwnerUserID:   uuid.New(),
		LastEditedBy:  uuid.New(),
		LastEditedAt:  time.Unix(100, 0),
	}
	inserted, err := repo.Insert(context.Background(), record)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return inserted
}

func TestMemoryGetByIDNotFound(t *testing.T) {
	repo := store.NewMemoryRepository()

	_, err := repo.GetByID(context.Background(), uuid.New())
	var notFound *store.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMemoryCompareAndSwapSuccess(t *testing.T) {
	repo := store.NewMemoryRepository()
	record := seedArticle(t, repo, 3)

	editor := uuid.New()
	content := "updated body"
	editedAt := time.Unix(200, 0)

	updated, err := repo.CompareAndSwap(context.Background(), record.ID, 3, store.Mutation{
		Content:  &content,
		EditedBy: editor,
		EditedAt: editedAt,
	})
	if err != nil {
		t.Fatalf("compare-and-swap: %v", err)
	}

	if updated.Version != 4 {
		t.Fatalf("expected version 4, got %d", updated.Version)
	}
	if updated.Content != content {
		t.Fatalf("expected content %q, got %q", content, updated.Content)
	}
	if updated.LastEditedBy != editor {
		t.Fatalf("expected provenance %s, got %s", editor, updated.LastEditedBy)
	}
	if !updated.LastEditedAt.Equal(editedAt) {
		t.Fatalf("expected edit timestamp %v, got %v", editedAt, updated.LastEditedAt)
	}
}

func TestMemoryCompareAndSwapStaleVersion(t *testing.T) {
	repo := store.NewMemoryRepository()
	record := seedArticle(t, repo, 5)

	content := "first writer"
	if _, err := repo.CompareAndSwap(context.Background(), record.ID, 5, store.Mutation{
		Content:  &content,
		EditedBy: uuid.New(),
		EditedAt: time.Unix(300, 0),
	}); err != nil {
		t.Fatalf("first swap: %v", err)
	}

	stale := "second writer"
	_, err := repo.CompareAndSwap(context.Background(), record.ID, 5, store.Mutation{
		Content:  &stale,
		EditedBy: uuid.New(),
		EditedAt: time.Unix(301, 0),
	})

	var conflict *store.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected VersionConflictError, got %v", err)
	}
	if conflict.ExpectedVersion != 5 || conflict.ActualVersion != 6 {
		t.Fatalf("unexpected conflict detail: %+v", conflict)
	}
	if !errors.Is(err, articles.ErrVersionConflict) {
		t.Fatalf("conflict should unwrap to ErrVersionConflict")
	}

	current, err := repo.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Content != "first writer" {
		t.Fatalf("losing swap must not mutate storage, content is %q", current.Content)
	}
	if current.Version != 6 {
		t.Fatalf("losing swap must not bump version, got %d", current.Version)
	}
}

func TestMemoryCompareAndSwapExactlyOneWinner(t *testing.T) {
	repo := store.NewMemoryRepository()
	record := seedArticle(t, repo, 1)

	wins := 0
	for i := 0; i < 4; i++ {
		content := "writer"
		_, err := repo.CompareAndSwap(context.Background(), record.ID, 1, store.Mutation{
			Content:  &content,
			EditedBy: uuid.New(),
			EditedAt: time.Unix(400, 0),
		})
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("only one swap with a given expected version may succeed, got %d", wins)
	}
}

func TestMemoryCompareAndSwapStatusOnly(t *testing.T) {
	repo := store.NewMemoryRepository()
	record := seedArticle(t, repo, 2)

	status := domain.StatusEditing
	updated, err := repo.CompareAndSwap(context.Background(), record.ID, 2, store.Mutation{
		EditingStatus: &status,
		EditedBy:      uuid.New(),
		EditedAt:      time.Unix(500, 0),
	})
	if err != nil {
		t.Fatalf("compare-and-swap: %v", err)
	}
	if updated.EditingStatus != domain.StatusEditing {
		t.Fatalf("expected status editing, got %s", updated.EditingStatus)
	}
	if updated.Content != record.Content {
		t.Fatalf("status-only swap must not touch content")
	}
	if updated.Version != 3 {
		t.Fatalf("expected version 3, got %d", updated.Version)
	}
}

func TestMemoryCloneIsolation(t *testing.T) {
	repo := store.NewMemoryRepository()
	record := seedArticle(t, repo, 1)

	loaded, err := repo.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	loaded.Content = "mutated by caller"

	again, err := repo.GetByID(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Content != "original" {
		t.Fatalf("repository must hand out copies, got %q", again.Content)
	}
}
