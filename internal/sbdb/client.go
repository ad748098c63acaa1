package sbdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tphakala/asteroid-catalog/internal/errors"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability/metrics"
)

// Config holds lookup client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit float64 // requests per second, 0 disables pacing
}

// DefaultConfig returns the public SBDB endpoint with conservative limits.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://ssd-api.jpl.nasa.gov/sbdb.api",
		Timeout:   10 * time.Second,
		CacheTTL:  24 * time.Hour,
		RateLimit: 2,
	}
}

// Getter performs an HTTP GET bound to ctx.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client queries the SBDB API. Results are cached by designation and
// requests are paced by a token bucket.
type Client struct {
	config  Config
	http    Getter
	cache   *cache.Cache
	limiter *rate.Limiter
	metrics metrics.Recorder
	log     logger.Logger
}

// NewClient creates a lookup client. A nil recorder disables metrics.
func NewClient(config Config, httpClient Getter, recorder metrics.Recorder, log logger.Logger) (*Client, error) {
	if httpClient == nil {
		return nil, errors.Newf("sbdb client requires an HTTP client").
			Component("sbdb").
			Category(errors.CategoryConfiguration).
			Build()
	}

	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, errors.New(err).
			Component("sbdb").
			Category(errors.CategoryConfiguration).
			Context("base_url", config.BaseURL).
			Build()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.Global().Module("sbdb")
	}

	log.Debug("classification client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("timeout", config.Timeout),
		logger.Duration("cache_ttl", config.CacheTTL),
		logger.Float64("rate_limit", config.RateLimit))

	return &Client{
		config:  config,
		http:    httpClient,
		cache:   cache.New(config.CacheTTL, config.CacheTTL*2),
		limiter: rate.NewLimiter(limit, 1),
		metrics: recorder,
		log:     log,
	}, nil
}

// Lookup returns the classification of designation. Every failure is a
// LookupError; callers degrade to Undefined.
func (c *Client) Lookup(ctx context.Context, designation string) (Classification, error) {
	if designation == "" {
		return Undefined, newLookupError(designation, "empty designation", nil)
	}

	if cached, found := c.cache.Get(designation); found {
		if cls, ok := cached.(Classification); ok {
			c.metrics.RecordOperation(metrics.OpLookup, metrics.StatusHit)
			c.log.Trace("classification cache hit", logger.String("designation", designation))
			return cls, nil
		}
	}
	c.metrics.RecordOperation(metrics.OpLookup, metrics.StatusMiss)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return Undefined, newLookupError(designation, "rate limiter wait", err)
	}

	start := time.Now()
	cls, err := c.fetch(ctx, designation)
	c.metrics.RecordDuration(metrics.OpLookup, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordOperation(metrics.OpLookup, metrics.StatusError)
		c.metrics.RecordError(metrics.OpLookup, lookupErrorType(ctx, err))
		return Undefined, err
	}

	c.metrics.RecordOperation(metrics.OpLookup, metrics.StatusSuccess)
	c.cache.Set(designation, cls, cache.DefaultExpiration)
	c.log.Debug("classification resolved",
		logger.String("designation", designation),
		logger.String("class", cls.Class),
		logger.Bool("neo", cls.NEO),
		logger.Duration("duration", time.Since(start)))
	return cls, nil
}

func (c *Client) fetch(ctx context.Context, designation string) (Classification, error) {
	reqURL := fmt.Sprintf("%s?sstr=%s", c.config.BaseURL, url.QueryEscape(designation))

	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		return Undefined, newLookupError(designation, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Undefined, newLookupError(designation, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	return parseResponse(designation, resp.Body)
}

func lookupErrorType(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded):
		return string(errors.CategoryTimeout)
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return string(errors.CategoryLookup)
	}
}
