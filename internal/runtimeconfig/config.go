package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConflictWindowInvalid rejects negative near-simultaneous-edit windows.
var ErrConflictWindowInvalid = errors.New("collab config: editor conflict window must be zero or positive")

// ErrAutosaveDebounceInvalid rejects non-positive auto-save debounce delays.
var ErrAutosaveDebounceInvalid = errors.New("collab config: autosave debounce must be positive when autosave is enabled")

// ErrSettleWindowInvalid rejects non-positive realtime settle windows.
var ErrSettleWindowInvalid = errors.New("collab config: realtime settle window must be positive when realtime is enabled")

// ErrRealtimeAddrRequired ensures redis-backed feeds know where to connect.
var ErrRealtimeAddrRequired = errors.New("collab config: redis address is required for the redis feed provider")

var ErrStorageProviderUnknown = errors.New("collab config: storage provider is invalid")
var ErrFeedProviderUnknown = errors.New("collab config: feed provider is invalid")
var ErrLoggingProviderRequired = errors.New("collab config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("collab config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("collab config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("collab config: logging format is invalid")
var ErrAuditCronInvalid = errors.New("collab config: audit cleanup cron expression is required when auto-registration is enabled")

// Config aggregates feature flags and tunables for the collaboration module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled  bool
	Storage  StorageConfig
	Editor   EditorConfig
	Autosave AutosaveConfig
	Realtime RealtimeConfig
	Commands CommandsConfig
	Features Features
	Logging  LoggingConfig
}

// StorageConfig selects the article repository implementation.
type StorageConfig struct {
	Provider string
}

// EditorConfig tunes the save coordinator.
type EditorConfig struct {
	// ConflictWindow is the near-simultaneous-edit detection window. Zero
	// falls back to the coordinator default; the window is advisory and the
	// version check stays authoritative regardless of its size.
	ConflictWindow time.Duration
}

// AutosaveConfig tunes the background save scheduler.
type AutosaveConfig struct {
	Debounce time.Duration
}

// RealtimeConfig tunes change fan-out and session reconciliation.
type RealtimeConfig struct {
	Provider      string
	SettleWindow  time.Duration
	ChannelPrefix string
	Redis         RedisConfig
}

// RedisConfig carries connection settings for the redis feed provider.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled          bool
	AutoRegisterCron bool
	CleanupAuditCron string
}

// Features toggles module functionality.
type Features struct {
	Autosave bool
	Realtime bool
	Audit    bool
	Logger   bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for a single-node deployment.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Storage: StorageConfig{
			Provider: "memory",
		},
		Editor: EditorConfig{
			ConflictWindow: 5 * time.Second,
		},
		Autosave: AutosaveConfig{
			Debounce: 2 * time.Second,
		},
		Realtime: RealtimeConfig{
			Provider:      "memory",
			SettleWindow:  800 * time.Millisecond,
			ChannelPrefix: "collab.articles.",
		},
		Commands: CommandsConfig{},
		Features: Features{
			Autosave: true,
			Realtime: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if provider := normalize(cfg.Storage.Provider); provider != "" && !isSupportedStorage(provider) {
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Editor.ConflictWindow < 0 {
		return ErrConflictWindowInvalid
	}
	if cfg.Features.Autosave && cfg.Autosave.Debounce <= 0 {
		return ErrAutosaveDebounceInvalid
	}
	if cfg.Features.Realtime {
		if cfg.Realtime.SettleWindow <= 0 {
			return ErrSettleWindowInvalid
		}
		provider := normalize(cfg.Realtime.Provider)
		if provider != "" && !isSupportedFeed(provider) {
			return fmt.Errorf("%w: %s", ErrFeedProviderUnknown, provider)
		}
		if provider == "redis" && strings.TrimSpace(cfg.Realtime.Redis.Addr) == "" {
			return ErrRealtimeAddrRequired
		}
	}
	if cfg.Commands.AutoRegisterCron && strings.TrimSpace(cfg.Commands.CleanupAuditCron) == "" {
		return ErrAuditCronInvalid
	}
	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedLoggingProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedStorage(provider string) bool {
	switch provider {
	case "memory", "bun":
		return true
	default:
		return false
	}
}

func isSupportedFeed(provider string) bool {
	switch provider {
	case "memory", "redis":
		return true
	default:
		return false
	}
}

func isSupportedLoggingProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
