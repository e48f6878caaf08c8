package api

import (
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pquerna/otp/totp"

	"github.com/abhay-codes07/dream-trade-bot/internal/execution"
	"github.com/abhay-codes07/dream-trade-bot/internal/logger"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/news"
	"github.com/abhay-codes07/dream-trade-bot/internal/portfolio"
)

const (
	actionStartTrade = "start_trade"
	actionLiquidate  = "liquidate"
)

// signalRequest is the /trade-signal body. Without an action it is a plain
// trade signal; the action envelope mirrors the overlay's messages.
type signalRequest struct {
	Action string `json:"action,omitempty"`
	model.TradeSignal
	liquidateRequest
}

type liquidateRequest struct {
	Prices map[string]float64 `json:"prices,omitempty"`
	Code   string             `json:"code,omitempty"`
}

type liquidateResponse struct {
	Status  model.Status         `json:"status"`
	Message string               `json:"message"`
	Sold    []model.HistoryEntry `json:"sold"`
	Skipped []string             `json:"skipped,omitempty"`
}

func (s *Server) handleTradeSignal(w http.ResponseWriter, r *http.Request) {
	var req signalRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Decision{Status: model.StatusInvalidInput, Message: "invalid JSON body: " + err.Error()})
		return
	}

	switch strings.ToLower(req.Action) {
	case "", actionStartTrade:
	case actionLiquidate:
		s.liquidate(w, r, req.Price, req.liquidateRequest)
		return
	default:
		writeJSON(w, http.StatusBadRequest, model.Decision{Status: model.StatusInvalidInput, Message: "unknown action " + strconv.Quote(req.Action)})
		return
	}

	ctx := logger.WithTraceID(r.Context(), logger.GenerateTraceID(req.Symbol, s.now()))
	dec, err := s.deps.Engine.HandleSignal(ctx, req.TradeSignal)
	if err != nil {
		slog.Error("trade signal failed", append(logger.LogWithTrace(ctx), "symbol", req.Symbol, "error", err)...)
		s.deps.Health.SetStoreOK(false)
		writeJSON(w, http.StatusInternalServerError, dec)
		return
	}
	s.deps.Health.SetStoreOK(true)
	s.deps.Health.SetLastSignal(s.now())

	status := http.StatusOK
	if dec.Status == model.StatusInvalidInput {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, dec)
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price float64 `json:"price,omitempty"`
		liquidateRequest
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, model.Decision{Status: model.StatusInvalidInput, Message: "invalid JSON body: " + err.Error()})
			return
		}
	}
	s.liquidate(w, r, req.Price, req.liquidateRequest)
}

func (s *Server) liquidate(w http.ResponseWriter, r *http.Request, price float64, req liquidateRequest) {
	if secret := s.deps.LiquidateTOTPSecret; secret != "" {
		if req.Code == "" || !totp.Validate(req.Code, secret) {
			writeJSON(w, http.StatusForbidden, model.Decision{Status: model.StatusInvalidInput, Message: "liquidation requires a valid confirmation code"})
			return
		}
	}

	// Explicit per-symbol prices win, then the single request price, then
	// the last signal price, then the live quote feed.
	chain := execution.QuoteChain{execution.StaticPrices(req.Prices)}
	if price > 0 {
		chain = append(chain, execution.UniformPrice(price))
	}
	chain = append(chain, s.deps.Engine.Prices())
	if s.deps.Quotes != nil {
		chain = append(chain, s.deps.Quotes)
	}

	res, err := s.deps.Engine.LiquidateAll(r.Context(), chain)
	if err != nil {
		log.Printf("[api] liquidate failed after %d sells: %v", len(res.Sold), err)
		s.deps.Health.SetStoreOK(false)
		writeJSON(w, http.StatusInternalServerError, liquidateResponse{
			Status:  model.StatusError,
			Message: err.Error(),
			Sold:    nonNil(res.Sold),
			Skipped: res.Skipped,
		})
		return
	}
	msg := "sold " + strconv.Itoa(len(res.Sold)) + " position(s)"
	if len(res.Skipped) > 0 {
		msg += ", " + strconv.Itoa(len(res.Skipped)) + " skipped without a price"
	}
	writeJSON(w, http.StatusOK, liquidateResponse{
		Status:  model.StatusLiquidated,
		Message: msg,
		Sold:    nonNil(res.Sold),
		Skipped: res.Skipped,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	acct, err := s.deps.Engine.Ledger().Snapshot(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	acct, err := s.deps.Engine.Ledger().Snapshot(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, portfolio.Summarize(acct, s.deps.Engine.Prices().Snapshot()))
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		writeError(w, "journal disabled", http.StatusNotFound)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.deps.Journal.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, "symbol is required", http.StatusBadRequest)
		return
	}
	if s.deps.News == nil {
		writeError(w, "news disabled", http.StatusBadGateway)
		return
	}
	report, err := s.deps.News.Report(r.Context(), symbol)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, news.ErrUpstream) {
			status = http.StatusBadGateway
		}
		writeError(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	daily := s.deps.Engine.Daily()
	if daily == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
		return
	}
	writeJSON(w, http.StatusOK, daily.Snapshot())
}

func (s *Server) handleRiskReset(w http.ResponseWriter, r *http.Request) {
	daily := s.deps.Engine.Daily()
	if daily == nil {
		writeError(w, "daily loss breaker disabled", http.StatusNotFound)
		return
	}
	daily.Reset()
	snap := daily.Snapshot()
	s.deps.Metrics.ObserveDaily(snap.CumulativePnL, snap.Breached)
	writeJSON(w, http.StatusOK, snap)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
