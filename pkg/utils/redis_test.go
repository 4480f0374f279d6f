package utils

import (
	"testing"
	"time"
)

func TestRedisConfig_Defaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.DialTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		t.Fatalf("expected timeout defaults, got %+v", cfg)
	}
	if cfg.ReadTimeout < 10*time.Second {
		t.Fatalf("read timeout must cover blocking stream reads, got %v", cfg.ReadTimeout)
	}
	if cfg.PoolSize <= 0 {
		t.Fatalf("expected pool size default")
	}
}
