// Package api is the signal server's HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhay-codes07/dream-trade-bot/internal/execution"
	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// NewsReporter serves scored headline reports.
type NewsReporter interface {
	Report(ctx context.Context, symbol string) (model.NewsReport, error)
}

// JournalReader reads the trade audit journal.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

// Deps are the collaborators behind the routes. Only Engine is required.
type Deps struct {
	Engine  *execution.Engine
	News    NewsReporter
	Journal JournalReader
	Quotes  model.PriceSource // fallback pricing for liquidation
	Events  http.Handler      // websocket stream
	Metrics *metrics.Metrics
	Health  *metrics.HealthStatus

	// LiquidateTOTPSecret, when set, requires a valid TOTP code to liquidate.
	LiquidateTOTPSecret string
}

// Server implements the HTTP handlers.
type Server struct {
	deps Deps
	now  func() time.Time
}

func NewServer(deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = metrics.NewHealthStatus()
	}
	return &Server{deps: deps, now: time.Now}
}

// Router builds the chi router with CORS on every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.deps.Metrics.Middleware)
	r.Use(cors)

	r.Post("/trade-signal", s.handleTradeSignal)
	r.Post("/liquidate", s.handleLiquidate)
	r.Get("/history", s.handleHistory)
	r.Get("/pnl", s.handlePnL)
	r.Get("/journal", s.handleJournal)
	r.Get("/market-news", s.handleMarketNews)
	r.Get("/risk", s.handleRisk)
	r.Post("/risk/reset", s.handleRiskReset)

	r.Handle("/health", s.deps.Health)
	r.Handle("/metrics", s.deps.Metrics.Handler())
	if s.deps.Events != nil {
		r.Handle("/ws", s.deps.Events)
	}
	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
