// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
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
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/cache"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/config"
	_ "github.com/eduzayn/Educhat-Versao-Final-sub003/internal/docs"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/domain"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/http/handlers"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/http/middleware"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/sysutil"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/ws"
)

// conversationRepoShim adapts the repository free functions to the
// services.ConversationLister interface expected by the ConversationService.
// This keeps services decoupled from the concrete repo package while reusing
// existing functions.
type conversationRepoShim struct{}

// ListConversationsPage proxies repo.ListConversationsPage.
func (conversationRepoShim) ListConversationsPage(ctx context.Context, db *gorm.DB, scopes []repo.Scope, limit, offset int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, scopes, limit, offset)
}

// CountConversations proxies repo.CountConversations.
func (conversationRepoShim) CountConversations(ctx context.Context, db *gorm.DB, scopes []repo.Scope) (int64, error) {
	return repo.CountConversations(ctx, db, scopes)
}

// ListUnassigned proxies repo.ListUnassigned.
func (conversationRepoShim) ListUnassigned(ctx context.Context, db *gorm.DB, limit, offset int) ([]domain.Conversation, error) {
	return repo.ListUnassigned(ctx, db, limit, offset)
}

// previewStoreShim adapts the batched preview query to services.PreviewStore.
// The resolver works with conversation ids only; the *gorm.DB stays here.
type previewStoreShim struct{ db *gorm.DB }

// LatestActivePerConversation proxies repo.LatestActivePerConversation.
func (s previewStoreShim) LatestActivePerConversation(ctx context.Context, conversationIDs []uint) ([]repo.PreviewRow, error) {
	return repo.LatestActivePerConversation(ctx, s.db, conversationIDs)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, the
// websocket gateway, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, hub *ws.Hub, provider services.ProviderAdapter, perms services.PermissionEvaluator, listCache cache.Cache, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Conversation payloads carry
	// customer phone numbers and emails; the search endpoint puts them in
	// query strings.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression. Message
	// history pages compress well; media rides on provider CDNs, not here.
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, conversationID uint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, conversationID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP. Webhook routes are exempt
	// here and get their own, higher limits below; provider traffic spikes
	// with campaign sends and must not starve the agent-facing API (or be
	// starved by it).
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	webhookPrefix := strings.TrimSuffix(apiBase, "/") + "/webhooks/"
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	rlHandler := rl.Handler()
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, webhookPrefix) {
			c.Next()
			return
		}
		rlHandler(c)
	})

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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers. NoStore is on: every conversation response embeds
	// customer names, phones, and message content.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
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
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, sysutil.Health(hub.ClientCount()))
	})

	// Websocket gateway; room occupancy feeds the unread tracker.
	wsHandler := ws.NewHandler(hub, cfg.WSAllowedOrigins)
	r.GET("/ws", wsHandler.Serve)

	// Swagger UI (enable only where the API surface may be public)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/cache/hub
	contactSvc := services.NewContactService(db)
	previews := services.NewPreviewResolver(previewStoreShim{db: db})
	convSvc := services.NewConversationService(db, conversationRepoShim{}, previews, listCache)
	convSvc.Notify = hub
	msgSvc := services.NewMessageService(db, contactSvc, provider, hub, hub)
	assignSvc := services.NewAssignmentService(db, perms, hub)
	h := handlers.New(convSvc, msgSvc, assignSvc, contactSvc)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Conversations
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/search", h.SearchConversations)
		api.GET("/conversations/unassigned", h.ListUnassigned)
		api.GET("/conversations/:id", h.GetConversation)
		api.PATCH("/conversations/:id/status", h.UpdateConversationStatus)
		api.POST("/conversations/:id/assign", h.AssignConversation)
		api.POST("/conversations/:id/read", h.MarkConversationRead)

		// Messages
		api.GET("/conversations/:id/messages", h.ListMessages)
		api.POST("/conversations/:id/messages", h.PostMessage)
		api.DELETE("/messages/:id", h.DeleteMessage)
		api.POST("/messages/:id/hide", h.HideMessage)

		// Contacts
		api.GET("/contacts/:id", h.GetContact)
		api.PATCH("/contacts/:id", h.UpdateContact)
		api.DELETE("/contacts/:id", h.DeleteContact)
		api.GET("/contacts/:id/duplicates", h.ListContactDuplicates)

		// Normalized inbound events from channel adapters. These routes are
		// exempt from the global limiter above and enforce their own, higher
		// budget, keyed by source IP since providers do not send X-User-ID.
		webhookRL := middleware.NewRateLimiter(cfg.WebhookRateRPS, cfg.WebhookRateBurst, middleware.KeyByUserOrIP())
		api.POST("/webhooks/:channel/messages", webhookRL.Handler(), h.ReceiveInbound)
		api.POST("/webhooks/:channel/receipts", webhookRL.Handler(), h.ReceiveDeliveryReceipt)
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
