package redis

import (
	"context"
	"testing"
	"time"
)

func TestConfigOptions_Defaults(t *testing.T) {
	opts := Config{Addr: "localhost:6379"}.options()
	if opts.PoolSize != defaultPoolSize {
		t.Fatalf("pool size = %d, want %d", opts.PoolSize, defaultPoolSize)
	}
	for name, got := range map[string]time.Duration{
		"dial": opts.DialTimeout, "read": opts.ReadTimeout, "write": opts.WriteTimeout, "pool": opts.PoolTimeout,
	} {
		if got != defaultTimeout {
			t.Fatalf("%s timeout = %s, want %s", name, got, defaultTimeout)
		}
	}
}

func TestConfigOptions_Overrides(t *testing.T) {
	opts := Config{
		Addr:         "redis:6379",
		Password:     "pw",
		DB:           2,
		PoolSize:     40,
		MinIdleConns: 4,
		Timeout:      750 * time.Millisecond,
	}.options()
	if opts.Addr != "redis:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("connection fields not applied: %+v", opts)
	}
	if opts.PoolSize != 40 || opts.MinIdleConns != 4 {
		t.Fatalf("pool fields not applied: size=%d idle=%d", opts.PoolSize, opts.MinIdleConns)
	}
	if opts.ReadTimeout != 750*time.Millisecond || opts.DialTimeout != 750*time.Millisecond {
		t.Fatalf("timeouts not applied: read=%s dial=%s", opts.ReadTimeout, opts.DialTimeout)
	}
}

func TestConnect_UnreachableFailsFast(t *testing.T) {
	start := time.Now()
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("connect did not honour timeout: %s", time.Since(start))
	}
}
