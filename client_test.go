package evidlit

import (
	"context"
	"testing"
	"time"
)

func TestNewRequiresAddress(t *testing.T) {
	_, err := New(context.Background(), WithGateway("http://gw.local"))
	if err == nil {
		t.Fatal("expected error without a database address")
	}
}

func TestNewRequiresGateway(t *testing.T) {
	_, err := New(context.Background(), WithRedis("localhost:6379", ""))
	if err == nil {
		t.Fatal("expected error without a gateway base URL")
	}
}

func TestOptionsApply(t *testing.T) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	opts := []Option{
		WithRedis("db:6379", "secret"),
		WithGateway("http://gw.local"),
		WithGatewayTimeout(5 * time.Second),
		WithOpenAI("sk-test", "http://llm.local/v1", "gpt-4o"),
		WithKeyPrefix("app:"),
		WithCacheTTL(24 * time.Hour),
		WithTiming(50*time.Millisecond, 10*time.Millisecond),
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) != 1 || cfg.addrs[0] != "db:6379" || cfg.password != "secret" {
		t.Errorf("redis config not applied: %+v", cfg)
	}
	if cfg.gatewayBaseURL != "http://gw.local" || cfg.gatewayTimeout != 5*time.Second {
		t.Errorf("gateway config not applied: %+v", cfg)
	}
	if cfg.openaiAPIKey != "sk-test" || cfg.openaiModel != "gpt-4o" {
		t.Errorf("openai config not applied: %+v", cfg)
	}
	if cfg.keyPrefix != "app:" || cfg.cacheTTL != 24*time.Hour {
		t.Errorf("cache config not applied: %+v", cfg)
	}
	if cfg.debounce != 50*time.Millisecond || cfg.abortCooldown != 10*time.Millisecond {
		t.Errorf("timing config not applied: %+v", cfg)
	}
}
