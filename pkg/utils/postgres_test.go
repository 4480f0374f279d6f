package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	cfg := PostgresPoolConfig{}.withDefaults()
	if cfg.MaxOpenConns != 16 || cfg.MaxIdleConns != 8 {
		t.Fatalf("expected conn defaults, got %+v", cfg)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute || cfg.ConnMaxIdleTime != 10*time.Minute {
		t.Fatalf("expected lifetime defaults, got %+v", cfg)
	}
	if cfg.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout, got %v", cfg.PingTimeout)
	}
}

func TestPostgresPoolConfig_ExplicitValuesKept(t *testing.T) {
	cfg := PostgresPoolConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     time.Second,
	}.withDefaults()
	if cfg.MaxOpenConns != 4 || cfg.MaxIdleConns != 2 {
		t.Fatalf("explicit conn values overridden: %+v", cfg)
	}
	if cfg.PingTimeout != time.Second {
		t.Fatalf("explicit ping timeout overridden: %v", cfg.PingTimeout)
	}
}
