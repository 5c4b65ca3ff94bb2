// Package policy implements an HTTP response-caching policy as net/http
// middleware.
//
// For GET, HEAD and OPTIONS requests the policy derives a cache key, serves
// the request from a named cache resource when possible, and otherwise
// forwards it while capturing the response for later reuse. Clients can
// steer a single request with the X-Gravitee-Cache header or the cache
// query parameter (refresh, bypass).
package policy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/gateway-cache/pkg/cache"
	"github.com/Sternrassler/gateway-cache/pkg/freshness"
	"github.com/Sternrassler/gateway-cache/pkg/logging"
)

// ResourceResolver looks up cache resources by name.
// *cache.Registry implements it.
type ResourceResolver interface {
	Resource(name string) (cache.Resource, bool)
}

// Policy is the cache policy. It is immutable after New and safe for
// concurrent use.
type Policy struct {
	config    Config
	resources ResourceResolver
	keys      *KeyBuilder
	logger    zerolog.Logger
	now       func() time.Time
	evaluator KeyEvaluator
}

// Option configures a Policy.
type Option func(*Policy)

// WithLogger sets the policy logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Policy) {
		p.logger = logger
	}
}

// WithKeyEvaluator replaces the template evaluator built from Config.Key.
func WithKeyEvaluator(evaluator KeyEvaluator) Option {
	return func(p *Policy) {
		p.evaluator = evaluator
	}
}

// WithClock sets the time source used to resolve Expires headers and to
// judge the age of cached artifacts.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// New creates a cache policy.
func New(cfg Config, resources ResourceResolver, opts ...Option) (*Policy, error) {
	if resources == nil {
		return nil, errors.New("resource resolver cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Policy{
		config:    cfg,
		resources: resources,
		logger:    logging.NewLogger("cache-policy"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.evaluator == nil && cfg.Key != "" {
		evaluator, err := NewTemplateEvaluator(cfg.Key)
		if err != nil {
			return nil, err
		}
		p.evaluator = evaluator
	}
	p.keys = NewKeyBuilder(cfg.Scope, p.evaluator)

	if cfg.TimeToLiveSeconds == 0 {
		p.logger.Warn().
			Str("cache_name", cfg.CacheName).
			Msg("timeToLiveSeconds is 0, no response will be stored")
	}

	return p, nil
}

// Config returns the validated configuration.
func (p *Policy) Config() Config {
	return p.config
}

// Middleware wraps next with the cache policy.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.serve(w, r, next)
	})
}

// exchange is the per-request state of the policy.
type exchange struct {
	policy *Policy
	action Action
	key    string
	store  cache.Store
	logger zerolog.Logger
}

func (p *Policy) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	action := ResolveAction(r)

	if !isSafeMethod(r.Method) {
		Requests.WithLabelValues(outcomeSkipped).Inc()
		next.ServeHTTP(w, r)
		return
	}

	if action == ActionBypass {
		Requests.WithLabelValues(outcomeBypass).Inc()
		logger := logging.WithRequest(p.logger, r)
		logger.Debug().Msg("Cache bypassed by client")
		next.ServeHTTP(w, r)
		return
	}

	store, err := p.store()
	if err != nil {
		p.fail(w, r, err)
		return
	}

	key, err := p.keys.Build(r)
	if err != nil {
		p.fail(w, r, newPolicyError("Unable to compute cache key", err))
		return
	}

	ex := &exchange{
		policy: p,
		action: action,
		key:    key,
		store:  store,
		logger: logging.WithRequest(p.logger, r).With().Str("cache_key", key).Logger(),
	}

	if action != ActionRefresh {
		if artifact := ex.lookup(r.Context()); artifact != nil && artifact.Serves(r.Method) {
			ex.serveHit(w, r, artifact)
			return
		}
		Requests.WithLabelValues(outcomeMiss).Inc()
	} else {
		Requests.WithLabelValues(outcomeRefresh).Inc()
		ex.logger.Info().Msg("Cache refresh requested by client")
	}

	ex.forward(w, r, next)
}

// store resolves the configured cache resource.
func (p *Policy) store() (cache.Store, error) {
	resource, ok := p.resources.Resource(p.config.CacheName)
	if !ok {
		return nil, errCacheNotDefined(p.config.CacheName)
	}
	store := resource.Cache()
	if store == nil {
		return nil, errCacheNotFound(p.config.CacheName)
	}
	return store, nil
}

func (p *Policy) fail(w http.ResponseWriter, r *http.Request, err error) {
	Failures.Inc()

	status := http.StatusInternalServerError
	message := err.Error()
	var policyErr *PolicyError
	if errors.As(err, &policyErr) {
		status = policyErr.StatusCode
		message = policyErr.Message
	}

	logger := logging.WithRequest(p.logger, r)
	logger.Error().
		Err(err).
		Str("cache_name", p.config.CacheName).
		Msg("Cache policy failed")

	http.Error(w, message, status)
}

// lookup returns the cached artifact, or nil on a miss. Store errors are
// logged and treated as a miss.
func (ex *exchange) lookup(ctx context.Context) *cache.Artifact {
	artifact, err := ex.store.Get(ctx, ex.key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			ex.logger.Warn().Err(err).Msg("Cache lookup failed, forwarding request")
		}
		return nil
	}
	if artifact.IsExpired(ex.policy.now()) {
		ex.logger.Debug().Time("expires", artifact.Expires()).Msg("Cached response is stale")
		return nil
	}
	return artifact
}

func (ex *exchange) serveHit(w http.ResponseWriter, r *http.Request, artifact *cache.Artifact) {
	Requests.WithLabelValues(outcomeHit).Inc()

	if r.Body != nil {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}

	if err := artifact.WriteTo(w, r.Method); err != nil {
		ex.logger.Warn().Err(err).Msg("Failed to write cached response")
		return
	}

	ex.logger.Debug().
		Int("status", artifact.Status).
		Int64("ttl", artifact.TTL).
		Msg("Served from cache")
}

// forward invokes next through a capture writer and stores the response
// once next has returned. A panicking handler stores nothing.
func (ex *exchange) forward(w http.ResponseWriter, r *http.Request, next http.Handler) {
	cw := newCaptureWriter(w)

	completed := false
	defer func() {
		if !completed {
			NotStored.WithLabelValues(reasonAborted).Inc()
			ex.logger.Debug().Msg("Backend response aborted, nothing cached")
		}
	}()

	next.ServeHTTP(cw, r)
	completed = true

	ex.complete(r, cw)
}

func (ex *exchange) complete(r *http.Request, cw *captureWriter) {
	ctx := r.Context()
	if ctx.Err() != nil {
		NotStored.WithLabelValues(reasonAborted).Inc()
		ex.logger.Debug().Err(ctx.Err()).Msg("Request cancelled before completion, nothing cached")
		return
	}

	status, header, body := cw.result()

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		NotStored.WithLabelValues(reasonStatus).Inc()
		ex.logger.Debug().Int("status", status).Msg("Response status not cacheable")
		return
	}

	if r.Method == http.MethodHead {
		NotStored.WithLabelValues(reasonMethod).Inc()
		return
	}

	cfg := ex.policy.config
	ttl, err := freshness.Resolve(header, freshness.Options{
		UseResponseHeaders: cfg.UseResponseCacheHeaders,
		DefaultTTL:         cfg.TimeToLiveSeconds,
	}, ex.policy.now())
	if err != nil {
		ex.logger.Debug().Err(err).Msg("Ignoring malformed Cache-Control header")
	}

	if ttl <= 0 {
		NotStored.WithLabelValues(reasonTTL).Inc()
		ex.logger.Debug().Int64("ttl", ttl).Msg("Response already stale, nothing cached")
		return
	}

	artifact, err := cache.NewArtifact(r.Method, status, header, body, ttl)
	if err != nil {
		NotStored.WithLabelValues(reasonStatus).Inc()
		return
	}
	artifact.CachedAt = ex.policy.now()

	if err := ex.store.Put(ctx, ex.key, artifact, time.Duration(ttl)*time.Second); err != nil {
		NotStored.WithLabelValues(reasonStore).Inc()
		ex.logger.Warn().Err(err).Msg("Failed to store response in cache")
		return
	}

	Stored.Inc()
	ex.logger.Debug().
		Int("status", status).
		Int64("ttl", ttl).
		Str("action", ex.action.String()).
		Msg("Response stored in cache")
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
