package utils

import (
	"context"
	"testing"
	"time"
)

func TestLockReleaseScriptCompiles(t *testing.T) {
	if lockReleaseScript == nil {
		t.Fatalf("expected release script to be initialized")
	}
}

func TestTryAcquireLock_RejectsBadArgs(t *testing.T) {
	ctx := context.Background()
	if _, err := TryAcquireLock(ctx, nil, "k", "t", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
