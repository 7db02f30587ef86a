package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/internal/audit"
	"github.com/goliatone/go-collab/internal/realtime"
	"github.com/goliatone/go-collab/internal/runtimeconfig"
	"github.com/goliatone/go-collab/internal/store"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func staticIdentity(user interfaces.Identity) interfaces.IdentityProvider {
	return interfaces.IdentityProviderFunc(func(context.Context) (interfaces.Identity, error) {
		return user, nil
	})
}

func TestNewContainerDefaults(t *testing.T) {
	c, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	if c.EditorService() == nil {
		t.Fatal("expected editor service to be wired")
	}
	if _, ok := c.Repository().(*store.MemoryRepository); !ok {
		t.Fatalf("expected memory repository by default, got %T", c.Repository())
	}
	if _, ok := c.Feed().(*realtime.MemoryFeed); !ok {
		t.Fatalf("expected memory feed by default, got %T", c.Feed())
	}
	if c.AuditRecorder() != nil {
		t.Fatal("expected audit recorder to stay unbound while the feature is disabled")
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Editor.ConflictWindow = -time.Second

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrConflictWindowInvalid) {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

func TestContainerEditorSavesThroughMemoryRepository(t *testing.T) {
	owner := interfaces.Identity{ID: uuid.New(), Email: "owner@example.com"}
	c, err := NewContainer(runtimeconfig.DefaultConfig(), WithIdentityProvider(staticIdentity(owner)))
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	articleID := uuid.New()
	_, err = c.Repository().Insert(context.Background(), &articles.Article{
		ID:          articleID,
		Content:     "seed",
		Version:     1,
		OwnerUserID: owner.ID,
	})
	if err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	result, err := c.EditorService().Save(context.Background(), articles.SaveRequest{
		ArticleID:          articleID,
		Content:            "updated through container wiring",
		ConflictResolution: articles.ResolutionForce,
	})
	if err != nil {
		t.Fatalf("save through container: %v", err)
	}
	if !result.Success || result.VersionNumber != 2 {
		t.Fatalf("expected version 2 after save, got %+v", result)
	}
}

func TestContainerAutosaveSchedulerRespectsFeatureFlag(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Autosave = false

	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	if s := c.NewAutosaveScheduler(uuid.New()); s != nil {
		t.Fatal("expected no scheduler while autosave is disabled")
	}

	cfg.Features.Autosave = true
	c2, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c2.Close()

	s := c2.NewAutosaveScheduler(uuid.New())
	if s == nil {
		t.Fatal("expected scheduler when autosave is enabled")
	}
	s.Close()
}

func TestContainerReconcilerRespectsFeatureFlag(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Realtime = false

	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	if c.Feed() != nil {
		t.Fatal("expected no feed while realtime is disabled")
	}
	if r := c.NewReconciler(uuid.New(), uuid.New(), func(interfaces.ArticleChange) error { return nil }); r != nil {
		t.Fatal("expected no reconciler while realtime is disabled")
	}
}

func TestContainerBindsRedisFeed(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := runtimeconfig.DefaultConfig()
	cfg.Realtime.Provider = "redis"
	cfg.Realtime.Redis.Addr = server.Addr()

	c, err := NewContainer(cfg, WithRedisClient(client))
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	if _, ok := c.Feed().(*realtime.RedisFeed); !ok {
		t.Fatalf("expected redis feed, got %T", c.Feed())
	}
}

func TestContainerCleanupHandlerRequiresAuditAndCommands(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Audit = true

	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	if h := c.CleanupAuditHandler(); h != nil {
		t.Fatal("expected no cleanup handler while commands are disabled")
	}

	cfg.Commands.Enabled = true
	cfg.Commands.CleanupAuditCron = "0 4 * * *"

	c2, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c2.Close()

	handler := c2.CleanupAuditHandler()
	if handler == nil {
		t.Fatal("expected cleanup handler when audit and commands are enabled")
	}
	if got := handler.CronOptions().Expression; got != "0 4 * * *" {
		t.Fatalf("expected configured cron expression, got %q", got)
	}
}

func TestContainerHonoursOverrides(t *testing.T) {
	repo := store.NewMemoryRepository()
	recorder := audit.NewInMemoryRecorder()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Audit = true

	c, err := NewContainer(cfg,
		WithRepository(repo),
		WithAuditRecorder(recorder),
	)
	if err != nil {
		t.Fatalf("NewContainer returned unexpected error: %v", err)
	}
	defer c.Close()

	if c.Repository() != store.Repository(repo) {
		t.Fatal("expected injected repository to be used")
	}
	if c.AuditRecorder() != audit.Recorder(recorder) {
		t.Fatal("expected injected recorder to be used")
	}
}
