package rest

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/kotoba-backend/internal/config"
	"github.com/heartmarshall/kotoba-backend/internal/transport/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health      *HealthHandler
	Parse       *ParseHandler
	Integration *IntegrationHandler
	Learning    *LearningHandler
}

// RouterConfig holds the transport-level settings of the router.
type RouterConfig struct {
	CORS             config.CORSConfig
	TrustProxy       bool
	AnalyzePerMinute int
}

// NewRouter builds the HTTP handler tree. The analyze endpoint calls the AI
// provider and sits behind the per-client rate limiter when one is given.
func NewRouter(h Handlers, cfg RouterConfig, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	var limitAnalyze middleware.Middleware
	if limiter != nil {
		limitAnalyze = limiter.Limit(cfg.AnalyzePerMinute)
	}

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.Handle("POST /api/v1/parse", middleware.Chain(limitAnalyze)(http.HandlerFunc(h.Parse.Analyze)))
	mux.HandleFunc("POST /api/v1/records", h.Parse.Submit)
	mux.HandleFunc("GET /api/v1/records/{id}", h.Parse.GetRecord)

	mux.HandleFunc("POST /api/v1/integration/records/{id}", h.Integration.IntegrateRecord)
	mux.HandleFunc("POST /api/v1/integration/rebuild", h.Integration.Rebuild)
	mux.HandleFunc("POST /api/v1/integration/repair", h.Integration.Repair)

	mux.HandleFunc("GET /api/v1/learning/words", h.Learning.Words)
	mux.HandleFunc("POST /api/v1/learning/plan", h.Learning.Plan)
	mux.HandleFunc("GET /api/v1/stats", h.Learning.Stats)
	mux.HandleFunc("GET /api/v1/vocabulary", h.Learning.Vocabulary)
	mux.HandleFunc("GET /api/v1/structures", h.Learning.Structures)
	mux.HandleFunc("POST /api/v1/vocabulary/{word}/reset-mastery", h.Learning.ResetMastery)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.ClientIP(cfg.TrustProxy),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)(mux)
}
