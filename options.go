package evidlit

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	gatewayBaseURL string
	gatewayTimeout time.Duration

	openaiAPIKey  string
	openaiBaseURL string
	openaiModel   string

	keyPrefix string
	cacheTTL  time.Duration

	debounce      time.Duration
	abortCooldown time.Duration

	observer Observer
	logger   *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithGateway sets the remote search gateway base URL. Required.
func WithGateway(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.gatewayBaseURL = baseURL
	})
}

// WithGatewayTimeout bounds each gateway request. Default: 60s.
func WithGatewayTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.gatewayTimeout = d
	})
}

// WithOpenAI routes the summary, per-document summary, and agreeableness
// stages to an OpenAI-compatible chat completion API instead of the gateway.
// Document search and relevant-section enrichment still use the gateway.
// baseURL and model may be empty for the provider defaults.
func WithOpenAI(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openaiAPIKey = apiKey
		c.openaiBaseURL = baseURL
		c.openaiModel = model
	})
}

// WithKeyPrefix namespaces all Redis keys. Default: "evidlit:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithCacheTTL sets how long cached result bundles live. Default: 31 days.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithTiming overrides the trigger debounce and abort cooldown windows.
// Defaults: 1s debounce, 300ms cooldown.
func WithTiming(debounce, abortCooldown time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.debounce = debounce
		c.abortCooldown = abortCooldown
	})
}

// WithObserver subscribes to pipeline state and result transitions.
// Pass nil to disable (default).
func WithObserver(o Observer) Option {
	return optionFunc(func(c *clientConfig) {
		c.observer = o
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
