// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/mktware/go-assist-backend/docs"
	"github.com/mktware/go-assist-backend/internal/analytics"
	"github.com/mktware/go-assist-backend/internal/assist"
	"github.com/mktware/go-assist-backend/internal/config"
	"github.com/mktware/go-assist-backend/internal/domain"
	"github.com/mktware/go-assist-backend/internal/http/handlers"
	"github.com/mktware/go-assist-backend/internal/http/middleware"
	"github.com/mktware/go-assist-backend/internal/repo"
	"github.com/mktware/go-assist-backend/internal/services"
)

// cacheStoreShim adapts the repository free functions to the
// assist.DurableCache interface expected by the two-tier cache. This keeps
// the assist package decoupled from the concrete repo package while reusing
// existing functions.
type cacheStoreShim struct{ db *gorm.DB }

// Get proxies repo.GetCachedResponse.
func (s cacheStoreShim) Get(ctx context.Context, hash string, now time.Time) (*domain.ResponseCache, error) {
	return repo.GetCachedResponse(ctx, s.db, hash, now)
}

// Put proxies repo.PutCachedResponse.
func (s cacheStoreShim) Put(ctx context.Context, entry *domain.ResponseCache) error {
	return repo.PutCachedResponse(ctx, s.db, entry)
}

// interactionShim adapts repo.ListRecentInteractions to assist.InteractionReader.
type interactionShim struct{ db *gorm.DB }

// Recent proxies repo.ListRecentInteractions.
func (s interactionShim) Recent(ctx context.Context, userID string, limit int) ([]domain.UserInteraction, error) {
	return repo.ListRecentInteractions(ctx, s.db, userID, limit)
}

// usageShim adapts repo.AddUsage to services.UsageSink.
type usageShim struct{ db *gorm.DB }

// Add proxies repo.AddUsage against the current month.
func (s usageShim) Add(ctx context.Context, userID string, tokens int, cost float64) error {
	return repo.AddUsage(ctx, s.db, userID, tokens, cost, time.Now().UTC())
}

// conversationShim adapts repo.AppendConversation to services.ConversationSink.
type conversationShim struct{ db *gorm.DB }

// Append proxies repo.AppendConversation.
func (s conversationShim) Append(ctx context.Context, userID string, turns []domain.ChatTurn, contextBlob map[string]any) error {
	return repo.AppendConversation(ctx, s.db, userID, turns, contextBlob)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under cfg.APIBasePath.
//
// The precomputed matcher is injected because its pattern set is warm-loaded
// and periodically refreshed by the caller; the router only wires it.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression (metrics excluded; Prometheus negotiates its own)
//  7. Metrics
//  8. Rate limiter (per user/IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, patterns *assist.PrecomputedMatcher, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (Authorization/Cookie masked by default)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Gzip responses; /metrics is scraped uncompressed
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in; never exposed unless explicitly enabled)
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: pipeline ← repo/db shims
	breaker := assist.NewBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown)
	assistSvc := &services.AssistService{
		Precomputed: patterns,
		Rules:       assist.NewRuleMatcher(),
		Cache:       assist.NewCache(cacheStoreShim{db: db}, cfg.Cache.MemoryLimit, zlog.Logger),
		Contexts:    assist.NewContextAssembler(interactionShim{db: db}, zlog.Logger),
		Completer:   assist.NewInvoker(cfg.Completion.APIKey, cfg.Completion.BaseURL, cfg.Completion.Timeout, breaker, zlog.Logger),
		Usage:       usageShim{db: db},
		Convos:      conversationShim{db: db},
		Breaker:     breaker,
		Tracker:     analytics.NewTracker(zlog.Logger),
		Log:         zlog.Logger,
		Limits: assist.PromptLimits{
			MaxHistory:         cfg.Assist.MaxHistory,
			MaxSystemPromptLen: cfg.Assist.MaxSystemPromptLen,
			MaxMessageLen:      cfg.Assist.MaxMessageLen,
		},
		SimpleTTL:  cfg.Cache.SimpleTTL,
		DefaultTTL: cfg.Cache.DefaultTTL,
	}
	h := handlers.New(assistSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/ai/chat", h.Chat)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
