package collab_test

import (
	"errors"
	"testing"
	"time"

	collab "github.com/goliatone/go-collab"
)

func TestConfigValidateRejectsNegativeConflictWindow(t *testing.T) {
	cfg := collab.DefaultConfig()
	cfg.Editor.ConflictWindow = -time.Second

	if err := cfg.Validate(); !errors.Is(err, collab.ErrConflictWindowInvalid) {
		t.Fatalf("expected ErrConflictWindowInvalid, got %v", err)
	}
}

func TestConfigValidateRedisFeedNeedsAddr(t *testing.T) {
	cfg := collab.DefaultConfig()
	cfg.Realtime.Provider = "redis"
	cfg.Realtime.Redis.Addr = ""

	if err := cfg.Validate(); !errors.Is(err, collab.ErrRealtimeAddrRequired) {
		t.Fatalf("expected ErrRealtimeAddrRequired, got %v", err)
	}
}

func TestConfigValidateUnknownFeedProvider(t *testing.T) {
	cfg := collab.DefaultConfig()
	cfg.Realtime.Provider = "kafka"

	if err := cfg.Validate(); !errors.Is(err, collab.ErrFeedProviderUnknown) {
		t.Fatalf("expected ErrFeedProviderUnknown, got %v", err)
	}
}
