package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/gateway-cache/pkg/cache"
	"github.com/Sternrassler/gateway-cache/pkg/logging"
	"github.com/Sternrassler/gateway-cache/pkg/metrics"
	"github.com/Sternrassler/gateway-cache/pkg/policy"
)

func main() {
	configPath := flag.String("config", getEnv("CACHE_PROXY_CONFIG", ""), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Logging.Level),
		Pretty:  cfg.Logging.Pretty,
		Output:  os.Stderr,
		Service: "cache-proxy",
	})
	logger := logging.NewLogger("cache-proxy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, closers, err := buildRegistry(ctx, cfg.Resources)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to set up cache resources")
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close cache resource")
			}
		}
	}()

	pol, err := policy.New(cfg.Policy, registry, policy.WithLogger(logging.NewLogger("cache-policy")))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache policy")
	}

	if err := metrics.RegisterBuildInfo(metrics.Registry); err != nil {
		logger.Warn().Err(err).Msg("Failed to register build info metric")
	}

	upstream, err := url.Parse(cfg.Server.Upstream)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid upstream URL")
	}

	if cfg.purgeEvery > 0 {
		go purgeLoop(ctx, registry, cfg.purgeEvery, logger)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           newRouter(cfg.Server, registry, pol, newReverseProxy(upstream, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("upstream", upstream.String()).
		Str("cache_name", cfg.Policy.CacheName).
		Strs("resources", registry.Names()).
		Msg("Starting cache proxy")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Cache proxy stopped")
}

// newRouter wires the operational endpoints and the cached proxy route.
func newRouter(server ServerConfig, registry *cache.Registry, pol *policy.Policy, upstream http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(registry))
	r.Handle("/metrics", promhttp.Handler())

	r.Handle("/*", attributes(server)(pol.Middleware(upstream)))
	return r
}

// attributes attaches the API and application identifiers used for cache key scoping.
func attributes(server ServerConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			app := r.Header.Get(server.ApplicationHeader)
			if app == "" {
				app = "anonymous"
			}
			ctx := policy.WithApplication(policy.WithAPI(r.Context(), server.APIID), app)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newReverseProxy(upstream *url.URL, logger zerolog.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Upstream request failed")
		w.WriteHeader(http.StatusBadGateway)
	}
	return proxy
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(p cache.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "Not Ready")
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// buildRegistry opens every configured resource. The returned closers must be
// closed on shutdown.
func buildRegistry(ctx context.Context, resources []ResourceConfig) (*cache.Registry, []io.Closer, error) {
	registry := cache.NewRegistry()
	var closers []io.Closer

	fail := func(err error) (*cache.Registry, []io.Closer, error) {
		for _, c := range closers {
			c.Close()
		}
		return nil, nil, err
	}

	for _, rc := range resources {
		switch strings.ToLower(rc.Type) {
		case resourceRedis:
			client, err := newRedisClient(rc.Addr)
			if err != nil {
				return fail(fmt.Errorf("resource %s: %w", rc.Name, err))
			}
			closers = append(closers, client)

			store := cache.NewRedisStore(client, rc.Prefix)
			if err := cache.WaitReady(ctx, rc.Name, store, cache.DefaultRetryConfig()); err != nil {
				return fail(fmt.Errorf("resource %s: %w", rc.Name, err))
			}
			registry.Register(rc.Name, store)

		case resourceSQLite:
			store, err := cache.NewSQLiteStore(rc.Path)
			if err != nil {
				return fail(fmt.Errorf("resource %s: %w", rc.Name, err))
			}
			closers = append(closers, store)
			registry.Register(rc.Name, store)

		case resourceLevelDB:
			store, err := cache.NewLevelDBStore(rc.Path)
			if err != nil {
				return fail(fmt.Errorf("resource %s: %w", rc.Name, err))
			}
			closers = append(closers, store)
			registry.Register(rc.Name, store)

		default:
			return fail(fmt.Errorf("resource %s: unsupported type %q", rc.Name, rc.Type))
		}

		log.Info().Str("resource", rc.Name).Str("type", rc.Type).Msg("Cache resource ready")
	}

	return registry, closers, nil
}

// newRedisClient accepts either a redis:// URL or a host:port address.
func newRedisClient(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeLoop periodically removes expired artifacts from stores that keep them.
func purgeLoop(ctx context.Context, registry *cache.Registry, every time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeExpired(ctx, registry, logger)
		}
	}
}

func purgeExpired(ctx context.Context, registry *cache.Registry, logger zerolog.Logger) {
	for _, name := range registry.Names() {
		resource, ok := registry.Resource(name)
		if !ok || resource.Cache() == nil {
			continue
		}
		p, ok := resource.(purger)
		if !ok {
			continue
		}
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("resource", name).Msg("Failed to purge expired artifacts")
			continue
		}
		if n > 0 {
			logger.Debug().Str("resource", name).Int64("purged", n).Msg("Purged expired artifacts")
		}
	}
}
