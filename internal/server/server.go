package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/monitor"
	"github.com/dgnsrekt/risk-monitor/internal/ws"
)

// Server is the thin HTTP layer over the engine facade.
type Server struct {
	engine         *monitor.Engine
	hub            *ws.Hub
	streamInterval time.Duration
	logger         *zap.Logger
}

func New(engine *monitor.Engine, hub *ws.Hub, streamInterval time.Duration, logger *zap.Logger) *Server {
	if streamInterval <= 0 {
		streamInterval = 5 * time.Second
	}
	return &Server{
		engine:         engine,
		hub:            hub,
		streamInterval: streamInterval,
		logger:         logger,
	}
}

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/positions", func(r chi.Router) {
		r.Get("/", s.handleListPositions)
		r.Post("/", s.handleAddPosition)
		r.Get("/{id}", s.handleGetPosition)
		r.Delete("/{id}", s.handleRemovePosition)
	})

	r.Get("/risk/summary", s.handleRiskSummary)
	r.Get("/risk/stream", s.handleRiskStream)
	r.Get("/portfolio/greeks", s.handlePortfolioGreeks)

	if s.hub != nil {
		r.Get("/ws/alerts", s.hub.HandleWS)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r)
		})
	}
}
