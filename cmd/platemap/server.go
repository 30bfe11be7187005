package main

import (
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"platemap/internal/analytics"
	"platemap/internal/app/dedupe"
	"platemap/internal/app/intake"
	"platemap/internal/app/moderation"
	"platemap/internal/httpapi"
	"platemap/internal/logging"
	"platemap/internal/placeapi"
	"platemap/internal/ratelimit"
	"platemap/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store, logger zerolog.Logger) http.Handler {
	lookup := placeapi.NewGoogleClient(placeapi.Config{
		APIKey:         cfg.PlacesAPIKey,
		RequestTimeout: cfg.LookupTimeout,
	})
	if lookup.Enabled() {
		logger.Info().Msg("place lookup client initialized")
	} else {
		logger.Warn().Msg("PLACES_API_KEY not provided, enrichment disabled")
	}

	pipeline := &intake.Pipeline{
		Repo:          dataStore,
		Detector:      dedupe.New(),
		Limiter:       ratelimit.New(newCounterStore(cfg, logger), cfg.RateLimit, cfg.RateLimitWindow),
		Lookup:        lookup,
		Analytics:     &analytics.LogEmitter{Logger: logger},
		Logger:        logger,
		LookupTimeout: cfg.LookupTimeout,
	}

	moderationSvc := moderation.New(dataStore)

	server := httpapi.New(
		pipeline,
		dataStore,
		moderationSvc,
		dataStore,
		[]byte(cfg.ModeratorJWTSecret),
		logger,
	)

	handler := logging.Recovery(logger)(server.Routes())
	handler = logging.RequestLogging(logger)(handler)
	return withCORS(cfg.AllowedOrigins, handler)
}

// newCounterStore picks the shared Redis counter when configured, otherwise
// the in-process store. A single instance does not need Redis.
func newCounterStore(cfg Config, logger zerolog.Logger) ratelimit.CounterStore {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryStore()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, using in-process rate limit store")
		return ratelimit.NewMemoryStore()
	}
	logger.Info().Msg("rate limiter backed by redis")
	return ratelimit.NewRedisStore(redis.NewClient(opts), "platemap:ratelimit")
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
