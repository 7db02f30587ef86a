package di

import (
	"strings"

	"github.com/goliatone/go-collab/articles"
	"github.com/goliatone/go-collab/internal/audit"
	"github.com/goliatone/go-collab/internal/autosave"
	auditcmd "github.com/goliatone/go-collab/internal/commands/audit"
	"github.com/goliatone/go-collab/internal/editor"
	"github.com/goliatone/go-collab/internal/logging"
	"github.com/goliatone/go-collab/internal/logging/gologger"
	"github.com/goliatone/go-collab/internal/realtime"
	"github.com/goliatone/go-collab/internal/runtimeconfig"
	"github.com/goliatone/go-collab/internal/store"
	"github.com/goliatone/go-collab/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// Container wires module dependencies from configuration. Memory-backed
// implementations are the defaults; bun storage and the redis feed bind when
// the configuration selects them.
type Container struct {
	Config runtimeconfig.Config

	identity       interfaces.IdentityProvider
	loggerProvider interfaces.LoggerProvider

	bunDB       *bun.DB
	redisClient redis.UniversalClient
	ownsRedis   bool

	repo     store.Repository
	feed     interfaces.ChangeFeed
	recorder audit.Recorder
	editor   articles.Service

	memoryFeed *realtime.MemoryFeed
	redisFeed  *realtime.RedisFeed
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithIdentityProvider binds the host application's identity lookup.
func WithIdentityProvider(provider interfaces.IdentityProvider) Option {
	return func(c *Container) {
		c.identity = provider
	}
}

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies the database handle used by the bun storage provider.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithRedisClient supplies an existing redis client for the redis feed
// provider. The container will not close it.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(c *Container) {
		c.redisClient = client
	}
}

// WithRepository overrides the article repository binding.
func WithRepository(repo store.Repository) Option {
	return func(c *Container) {
		c.repo = repo
	}
}

// WithFeed overrides the change feed binding.
func WithFeed(feed interfaces.ChangeFeed) Option {
	return func(c *Container) {
		c.feed = feed
	}
}

// WithAuditRecorder overrides the audit recorder binding.
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(c *Container) {
		c.recorder = recorder
	}
}

// WithEditorService overrides the save coordinator binding.
func WithEditorService(svc articles.Service) Option {
	return func(c *Container) {
		c.editor = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	c.configureLogging()
	c.configureStorage()
	c.configureFeed()
	c.configureAudit()
	c.configureEditor()

	return c, nil
}

func (c *Container) configureLogging() {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return
	}

	logCfg := gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	}
	if strings.EqualFold(strings.TrimSpace(c.Config.Logging.Provider), "console") && logCfg.Format == "" {
		logCfg.Format = "console"
	}

	provider, err := gologger.NewProvider(logCfg)
	if err != nil {
		// Logging stays no-op rather than failing module startup.
		return
	}
	c.loggerProvider = provider
}

func (c *Container) configureStorage() {
	if c.repo != nil {
		return
	}
	if strings.EqualFold(strings.TrimSpace(c.Config.Storage.Provider), "bun") && c.bunDB != nil {
		c.repo = store.NewBunRepository(c.bunDB)
		return
	}
	c.repo = store.NewMemoryRepository()
}

func (c *Container) configureFeed() {
	if c.feed != nil || !c.Config.Features.Realtime {
		return
	}

	if strings.EqualFold(strings.TrimSpace(c.Config.Realtime.Provider), "redis") {
		client := c.redisClient
		if client == nil {
			client = redis.NewClient(&redis.Options{
				Addr:     c.Config.Realtime.Redis.Addr,
				Password: c.Config.Realtime.Redis.Password,
				DB:       c.Config.Realtime.Redis.DB,
			})
			c.redisClient = client
			c.ownsRedis = true
		}
		c.redisFeed = realtime.NewRedisFeed(client,
			realtime.WithChannelPrefix(c.Config.Realtime.ChannelPrefix),
			realtime.WithFeedLogger(logging.RealtimeLogger(c.loggerProvider)),
		)
		c.feed = c.redisFeed
		return
	}

	c.memoryFeed = realtime.NewMemoryFeed()
	c.feed = c.memoryFeed
}

func (c *Container) configureAudit() {
	if c.recorder != nil || !c.Config.Features.Audit {
		return
	}
	c.recorder = audit.NewInMemoryRecorder()
}

func (c *Container) configureEditor() {
	if c.editor != nil {
		return
	}

	serviceOpts := []editor.ServiceOption{
		editor.WithLogger(logging.EditorLogger(c.loggerProvider)),
	}
	if c.Config.Editor.ConflictWindow > 0 {
		serviceOpts = append(serviceOpts, editor.WithConflictWindow(c.Config.Editor.ConflictWindow))
	}
	if c.feed != nil {
		serviceOpts = append(serviceOpts, editor.WithFeed(c.feed))
	}
	if c.recorder != nil {
		serviceOpts = append(serviceOpts, editor.WithAuditRecorder(c.recorder))
	}

	c.editor = editor.NewService(c.repo, c.identity, serviceOpts...)
}

// EditorService returns the configured save coordinator.
func (c *Container) EditorService() articles.Service {
	return c.editor
}

// Repository exposes the configured article repository.
func (c *Container) Repository() store.Repository {
	return c.repo
}

// Feed exposes the configured change feed. Nil when realtime is disabled.
func (c *Container) Feed() interfaces.ChangeFeed {
	return c.feed
}

// AuditRecorder exposes the configured audit recorder. Nil when auditing is disabled.
func (c *Container) AuditRecorder() audit.Recorder {
	return c.recorder
}

// IdentityProvider exposes the bound identity provider.
func (c *Container) IdentityProvider() interfaces.IdentityProvider {
	return c.identity
}

// LoggerProvider exposes the configured logger provider. Nil means no-op logging.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// NewAutosaveScheduler builds a scheduler for one article edit session using
// the configured debounce. Returns nil when the autosave feature is disabled.
func (c *Container) NewAutosaveScheduler(articleID uuid.UUID) *autosave.Scheduler {
	if !c.Config.Features.Autosave {
		return nil
	}
	return autosave.NewScheduler(c.editor, articleID,
		autosave.WithDebounce(c.Config.Autosave.Debounce),
		autosave.WithLogger(logging.AutosaveLogger(c.loggerProvider)),
	)
}

// NewReconciler builds a session reconciler bound to the configured feed.
// Returns nil when the realtime feature is disabled.
func (c *Container) NewReconciler(articleID, sessionUser uuid.UUID, apply realtime.ApplyFunc, opts ...realtime.ReconcilerOption) *realtime.Reconciler {
	if !c.Config.Features.Realtime || c.feed == nil {
		return nil
	}
	options := append([]realtime.ReconcilerOption{
		realtime.WithSettleWindow(c.Config.Realtime.SettleWindow),
		realtime.WithReconcilerLogger(logging.RealtimeLogger(c.loggerProvider)),
	}, opts...)
	return realtime.NewReconciler(c.editor, c.feed, articleID, sessionUser, apply, options...)
}

// CleanupAuditHandler builds the audit cleanup command handler. Returns nil
// when auditing or the command layer is disabled.
func (c *Container) CleanupAuditHandler() *auditcmd.CleanupAuditHandler {
	if !c.Config.Features.Audit || !c.Config.Commands.Enabled {
		return nil
	}
	cleaner, ok := c.recorder.(auditcmd.AuditCleaner)
	if !ok {
		return nil
	}

	opts := []auditcmd.CleanupHandlerOption{}
	if expr := strings.TrimSpace(c.Config.Commands.CleanupAuditCron); expr != "" {
		opts = append(opts, auditcmd.CleanupWithCronExpression(expr))
	}
	return auditcmd.NewCleanupAuditHandler(cleaner, logging.ModuleLogger(c.loggerProvider, "collab.commands.audit"), opts...)
}

// Close tears down feed subscriptions and any redis client the container
// created itself.
func (c *Container) Close() error {
	if c.memoryFeed != nil {
		c.memoryFeed.Close()
	}
	if c.redisFeed != nil {
		c.redisFeed.Close()
	}
	if c.ownsRedis && c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}
