package collab

import "github.com/goliatone/go-collab/internal/runtimeconfig"

var (
	ErrConflictWindowInvalid   = runtimeconfig.ErrConflictWindowInvalid
	ErrAutosaveDebounceInvalid = runtimeconfig.ErrAutosaveDebounceInvalid
	ErrSettleWindowInvalid     = runtimeconfig.ErrSettleWindowInvalid
	ErrRealtimeAddrRequired    = runtimeconfig.ErrRealtimeAddrRequired
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrFeedProviderUnknown     = runtimeconfig.ErrFeedProviderUnknown
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrAuditCronInvalid        = runtimeconfig.ErrAuditCronInvalid
)

type (
	Config         = runtimeconfig.Config
	StorageConfig  = runtimeconfig.StorageConfig
	EditorConfig   = runtimeconfig.EditorConfig
	AutosaveConfig = runtimeconfig.AutosaveConfig
	RealtimeConfig = runtimeconfig.RealtimeConfig
	RedisConfig    = runtimeconfig.RedisConfig
	CommandsConfig = runtimeconfig.CommandsConfig
	Features       = runtimeconfig.Features
	LoggingConfig  = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
