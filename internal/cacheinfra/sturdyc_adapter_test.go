package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 1024 {
		t.Errorf("expected Capacity to be 1024, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 8 {
		t.Errorf("expected NumShards to be 8, got %d", cfg.NumShards)
	}

	if cfg.TTL != 5*time.Minute {
		t.Errorf("expected TTL to be 5 minutes, got %v", cfg.TTL)
	}

	if cfg.EarlyRefresh != nil {
		t.Error("expected EarlyRefresh to be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, "config error in field Capacity: must be greater than 0"},
		{"zero shards", func(c *Config) { c.NumShards = 0 }, "config error in field NumShards: must be greater than 0"},
		{"more shards than capacity", func(c *Config) { c.NumShards = 200 }, "config error in field NumShards: must not exceed Capacity"},
		{"zero ttl", func(c *Config) { c.TTL = 0 }, "config error in field TTL: must be greater than 0"},
		{"eviction too low", func(c *Config) { c.EvictionPercentage = 0 }, "config error in field EvictionPercentage: must be between 1 and 100"},
		{"eviction too high", func(c *Config) { c.EvictionPercentage = 101 }, "config error in field EvictionPercentage: must be between 1 and 100"},
		{"negative early refresh", func(c *Config) {
			c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: -time.Second}
		}, "config error in field EarlyRefresh.MinAsyncRefreshTime: must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error but got none")
			}
			if err.Error() != tt.errorMsg {
				t.Errorf("expected %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	if n := len(testConfig().ToSturdycOptions()); n != 0 {
		t.Errorf("expected no options for minimal config, got %d", n)
	}

	cfg := testConfig()
	cfg.EarlyRefresh = &EarlyRefreshConfig{
		MinAsyncRefreshTime: time.Second,
		MaxAsyncRefreshTime: 2 * time.Second,
		SyncRefreshTime:     3 * time.Second,
		RetryBaseDelay:      10 * time.Millisecond,
	}
	cfg.EvictionInterval = time.Second
	if n := len(cfg.ToSturdycOptions()); n != 2 {
		t.Errorf("expected 2 options, got %d", n)
	}
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = 0

	service, err := NewSturdycService(cfg)
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if service != nil {
		t.Error("expected service to be nil when error occurs")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	service, err := NewSturdycService(testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	ctx := context.Background()
	var calls int32
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "page-1", nil
	}

	for i := 0; i < 3; i++ {
		v, err := service.GetOrFetch(ctx, "List::page=1", fetch)
		if err != nil {
			t.Fatalf("GetOrFetch() failed: %v", err)
		}
		if v.(string) != "page-1" {
			t.Errorf("expected page-1, got %v", v)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected fetch to run once, ran %d times", got)
	}
}

func TestSturdycService_ErrorsAreNotCached(t *testing.T) {
	service, _ := NewSturdycService(testConfig())
	ctx := context.Background()
	boom := errors.New("connection refused")

	var calls int32
	fetch := func(ctx context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := service.GetOrFetch(ctx, "k", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	v, err := service.GetOrFetch(ctx, "k", fetch)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if v.(int) != 7 {
		t.Errorf("expected 7, got %v", v)
	}
}

func TestSturdycService_InvalidFetchFn(t *testing.T) {
	service, _ := NewSturdycService(testConfig())
	ctx := context.Background()

	cases := map[string]any{
		"nil":          nil,
		"not a func":   42,
		"no context":   func() (int, error) { return 0, nil },
		"no error out": func(ctx context.Context) (int, int) { return 0, 0 },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := service.GetOrFetch(ctx, "k", fn)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestSturdycService_PeekStoreDelete(t *testing.T) {
	service, _ := NewSturdycService(testConfig())
	ctx := context.Background()

	if _, ok := service.Peek(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	_ = service.Store(ctx, "k", "v")
	if v, ok := service.Peek(ctx, "k"); !ok || v.(string) != "v" {
		t.Fatalf("expected stored value, got %v %v", v, ok)
	}

	_ = service.Delete(ctx, "k")
	if _, ok := service.Peek(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestSturdycService_DeleteByPrefix(t *testing.T) {
	service, _ := NewSturdycService(testConfig())
	ctx := context.Background()

	for _, key := range []string{"List::1", "List::2", "GetByID::1"} {
		_ = service.Store(ctx, key, key)
	}

	if err := service.DeleteByPrefix(ctx, "List"); err != nil {
		t.Fatalf("DeleteByPrefix() failed: %v", err)
	}

	for _, key := range []string{"List::1", "List::2"} {
		if _, ok := service.Peek(ctx, key); ok {
			t.Errorf("expected %s to be removed", key)
		}
	}
	if v, ok := service.Peek(ctx, "GetByID::1"); !ok || !strings.HasPrefix(v.(string), "GetByID") {
		t.Error("expected GetByID entry to survive")
	}
	if service.Size() != 1 {
		t.Errorf("expected 1 entry left, got %d", service.Size())
	}
}
