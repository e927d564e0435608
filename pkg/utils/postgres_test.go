package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 10 || c.MaxIdleConns != 10 {
		t.Fatalf("unexpected pool sizes: %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout, got %s", c.PingTimeout)
	}

	c = PostgresPoolConfig{MaxOpenConns: 4, MaxIdleConns: 2}.withDefaults()
	if c.MaxOpenConns != 4 || c.MaxIdleConns != 2 {
		t.Fatalf("explicit values must be kept: %+v", c)
	}
}

func TestWithTx_Signature(t *testing.T) {
	// WithTx needs a live *sql.DB; keep a compile-time check of the helper shape.
	var _ func() = func() { _ = WithTx }
	var _ TxFunc
}
