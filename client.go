package evidlit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/evidlit/evidlit/internal/db/redis"
	bundlerepo "github.com/evidlit/evidlit/internal/repository/bundle"
	historyrepo "github.com/evidlit/evidlit/internal/repository/history"
	"github.com/evidlit/evidlit/internal/transport/gateway"
	"github.com/evidlit/evidlit/internal/transport/openai"
	healthuc "github.com/evidlit/evidlit/internal/usecase/health"
	historyuc "github.com/evidlit/evidlit/internal/usecase/history"
	pipelineuc "github.com/evidlit/evidlit/internal/usecase/pipeline"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "evidlit:"
)

// Client is the evidlit SDK entry point.
type Client struct {
	store     *dbRedis.Store
	searchSvc *SearchService
	histSvc   *HistoryService
	healthSvc *healthuc.Service
}

// New creates an evidlit Client and connects to Redis and the gateway.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("evidlit: database address required (use WithRedis)")
	}
	if cfg.gatewayBaseURL == "" {
		return nil, errors.New("evidlit: gateway base URL required (use WithGateway)")
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("evidlit: create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("evidlit: database not ready: %w", err)
	}

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.gatewayBaseURL,
		Timeout: cfg.gatewayTimeout,
		Logger:  logger,
	})

	return wireClient(store, gw, cfg, logger), nil
}

func wireClient(store *dbRedis.Store, gw *gateway.Client, cfg *clientConfig, logger *zap.Logger) *Client {
	bundles := bundlerepo.New(store, cfg.keyPrefix, cfg.cacheTTL)
	histories := historyrepo.New(store, cfg.keyPrefix)
	histSvc := historyuc.New(histories)

	var pipeGW pipelineuc.Gateway = gw
	if cfg.openaiAPIKey != "" {
		pipeGW = gw.WithSummarizer(openai.NewSummarizer(&openai.Config{
			APIKey:  cfg.openaiAPIKey,
			BaseURL: cfg.openaiBaseURL,
			Model:   cfg.openaiModel,
			Logger:  logger,
		}))
	}

	var obs pipelineuc.Observer
	if cfg.observer != nil {
		obs = cfg.observer
	}

	pipeSvc := pipelineuc.New(pipeGW, bundles, histSvc, obs, logger, pipelineuc.Config{
		Debounce:      cfg.debounce,
		AbortCooldown: cfg.abortCooldown,
	})

	return &Client{
		store:     store,
		searchSvc: &SearchService{svc: pipeSvc, bundles: bundles},
		histSvc:   &HistoryService{svc: histSvc},
		healthSvc: healthuc.New(store, gw),
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Health reports database and gateway reachability.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.healthSvc.Check(ctx)
}

// Search returns the search pipeline service.
func (c *Client) Search() *SearchService { return c.searchSvc }

// History returns the search history service.
func (c *Client) History() *HistoryService { return c.histSvc }

