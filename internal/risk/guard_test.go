package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

type stubProvider struct {
	report model.NewsReport
	err    error
	panics bool
	calls  []string
}

func (s *stubProvider) Report(_ context.Context, symbol string) (model.NewsReport, error) {
	s.calls = append(s.calls, symbol)
	if s.panics {
		panic("decoder exploded")
	}
	return s.report, s.err
}

func TestGuard_FailsOpenOnError(t *testing.T) {
	g := NewGuard(&stubProvider{err: errors.New("dial tcp: connection refused")}, 0)
	for _, sym := range []string{"BTCUSD", "AAPL", ""} {
		v := g.Evaluate(context.Background(), sym)
		if !v.Allow || !v.Degraded {
			t.Errorf("%q: verdict %+v, want allow/degraded", sym, v)
		}
	}
}

func TestGuard_FailsOpenOnPanic(t *testing.T) {
	g := NewGuard(&stubProvider{panics: true}, 0)
	if v := g.Evaluate(context.Background(), "X"); !v.Allow {
		t.Errorf("verdict %+v, want allow", v)
	}
}

func TestGuard_NilProviderAllows(t *testing.T) {
	var g *Guard
	if !g.Evaluate(context.Background(), "X").Allow {
		t.Error("nil guard must allow")
	}
	if !NewGuard(nil, 0).Evaluate(context.Background(), "X").Allow {
		t.Error("guard without provider must allow")
	}
}

func TestGuard_RiskScoreBoundary(t *testing.T) {
	tests := []struct {
		mood  model.Mood
		score int
		allow bool
	}{
		{model.MoodBearish, 75, false},
		{model.MoodBearish, 60, false},
		{model.MoodBearish, 59, true},
		{model.MoodNeutral, 90, true},
		{model.MoodBullish, 100, true},
	}
	for _, tc := range tests {
		p := &stubProvider{report: model.NewsReport{Mood: model.MoodSummary{Mood: tc.mood, RiskScore: tc.score}}}
		v := NewGuard(p, time.Second).Evaluate(context.Background(), "BTCUSD")
		if v.Allow != tc.allow {
			t.Errorf("%s/%d: allow=%v, want %v", tc.mood, tc.score, v.Allow, tc.allow)
		}
		if v.Degraded {
			t.Errorf("%s/%d: unexpectedly degraded", tc.mood, tc.score)
		}
	}
}

func TestAssess_HeadlineIsFirstHighImpact(t *testing.T) {
	report := model.NewsReport{
		Mood: model.MoodSummary{Mood: model.MoodBearish, RiskScore: 80, SentimentScore: -70},
		Items: []model.NewsItem{
			{Title: "Analysts shrug", ImpactLabel: model.ImpactLow},
			{Title: "Exchange hacked, withdrawals halted", ImpactLabel: model.ImpactHigh},
			{Title: "Regulator sues issuer", ImpactLabel: model.ImpactHigh},
		},
	}
	v := Assess(report)
	if v.Allow {
		t.Fatal("expected block")
	}
	if v.Headline != "Exchange hacked, withdrawals halted" {
		t.Errorf("headline = %q", v.Headline)
	}
	if v.Reason == "" || v.Mood == nil || v.Mood.RiskScore != 80 {
		t.Errorf("verdict = %+v", v)
	}
}

func TestAssess_NoHighImpactHeadline(t *testing.T) {
	v := Assess(model.NewsReport{
		Mood:  model.MoodSummary{Mood: model.MoodBearish, RiskScore: 65},
		Items: []model.NewsItem{{Title: "meh", ImpactLabel: model.ImpactMedium}},
	})
	if v.Allow || v.Headline != "" {
		t.Errorf("verdict = %+v", v)
	}
}
