// Package overlay is the headless stand-in for the browser overlay: it
// samples prices, runs the indicator engine, watches alerts and news mood,
// and forwards trade signals to the signal server.
package overlay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
)

var _ risk.MoodProvider = (*Client)(nil)

// Client talks to the signal server.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for baseURL. A zero timeout means 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
}

// LiquidationReply is the server's liquidation response.
type LiquidationReply struct {
	Status  model.Status         `json:"status"`
	Message string               `json:"message"`
	Sold    []model.HistoryEntry `json:"sold"`
	Skipped []string             `json:"skipped,omitempty"`
}

// StatusError is a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// SendSignal posts a trade signal. Declines and Invalid Input come back as
// a Decision with a nil error; a 5xx returns the decision and an error.
func (c *Client) SendSignal(ctx context.Context, sig model.TradeSignal) (model.Decision, error) {
	var dec model.Decision
	code, err := c.do(ctx, http.MethodPost, "/trade-signal", sig, &dec)
	if err != nil {
		return dec, err
	}
	if code >= 500 {
		return dec, &StatusError{Code: code, Body: dec.Message}
	}
	return dec, nil
}

// Liquidate asks the server to sell every open position.
func (c *Client) Liquidate(ctx context.Context, price float64, prices map[string]float64, code string) (LiquidationReply, error) {
	body := map[string]any{}
	if price > 0 {
		body["price"] = price
	}
	if len(prices) > 0 {
		body["prices"] = prices
	}
	if code != "" {
		body["code"] = code
	}
	var reply LiquidationReply
	status, err := c.do(ctx, http.MethodPost, "/liquidate", body, &reply)
	if err != nil {
		return reply, err
	}
	if status != http.StatusOK {
		return reply, &StatusError{Code: status, Body: reply.Message}
	}
	return reply, nil
}

// Report fetches the scored news for symbol. It satisfies risk.MoodProvider,
// so the overlay can run the guard client-side.
func (c *Client) Report(ctx context.Context, symbol string) (model.NewsReport, error) {
	var report model.NewsReport
	status, err := c.do(ctx, http.MethodGet, "/market-news?symbol="+url.QueryEscape(symbol), nil, &report)
	if err != nil {
		return report, err
	}
	if status != http.StatusOK {
		return report, &StatusError{Code: status}
	}
	return report, nil
}

// History returns the account document.
func (c *Client) History(ctx context.Context) (*model.Account, error) {
	var acct model.Account
	status, err := c.do(ctx, http.MethodGet, "/history", nil, &acct)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Code: status}
	}
	return &acct, nil
}

// ResetDaily calls the daily breaker reset hook.
func (c *Client) ResetDaily(ctx context.Context) (risk.DailySnapshot, error) {
	var snap risk.DailySnapshot
	status, err := c.do(ctx, http.MethodPost, "/risk/reset", nil, &snap)
	if err != nil {
		return snap, err
	}
	if status != http.StatusOK {
		return snap, &StatusError{Code: status}
	}
	return snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response (%d): %w", path, resp.StatusCode, err)
		}
	}
	return resp.StatusCode, nil
}

// StaticSymbol is a SymbolSource for a fixed instrument.
type StaticSymbol string

func (s StaticSymbol) CurrentSymbol(context.Context) string { return string(s) }
