// Package risk holds the two pre-trade checks: the news-mood guard and the
// daily realized-loss breaker.
package risk

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

// BlockRiskScore is the minimum risk score at which a bearish mood blocks.
const BlockRiskScore = 60

// MoodProvider supplies the scored headline report for a symbol.
type MoodProvider interface {
	Report(ctx context.Context, symbol string) (model.NewsReport, error)
}

// Verdict is the guard's advisory decision.
type Verdict struct {
	Allow    bool               `json:"allow"`
	Reason   string             `json:"reason"`
	Headline string             `json:"headline,omitempty"`
	Mood     *model.MoodSummary `json:"mood,omitempty"`
	Degraded bool               `json:"degraded,omitempty"` // mood unavailable, allowed by default
}

// Guard evaluates news mood before a BUY. It fails open: if the mood
// cannot be obtained the verdict is Allow.
type Guard struct {
	provider MoodProvider
	timeout  time.Duration
}

// NewGuard creates a guard over provider. A zero timeout means 10s.
func NewGuard(provider MoodProvider, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Guard{provider: provider, timeout: timeout}
}

// Evaluate fetches the mood for symbol and applies Assess.
func (g *Guard) Evaluate(ctx context.Context, symbol string) (v Verdict) {
	if g == nil || g.provider == nil {
		return Verdict{Allow: true, Reason: "risk guard disabled"}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[risk] mood provider panic for %s: %v", symbol, r)
			v = degraded(fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	report, err := g.provider.Report(ctx, symbol)
	if err != nil {
		log.Printf("[risk] mood unavailable for %s, allowing: %v", symbol, err)
		return degraded(err)
	}
	return Assess(report)
}

func degraded(err error) Verdict {
	return Verdict{
		Allow:    true,
		Reason:   "mood unavailable: " + err.Error(),
		Degraded: true,
	}
}

// Assess is the pure decision over an already fetched report: block iff
// mood is bearish and the risk score is at least BlockRiskScore.
func Assess(report model.NewsReport) Verdict {
	mood := report.Mood
	v := Verdict{Allow: true, Mood: &mood}

	if mood.Mood == model.MoodBearish && mood.RiskScore >= BlockRiskScore {
		v.Allow = false
		v.Reason = fmt.Sprintf("bearish news mood with risk score %d", mood.RiskScore)
		v.Headline = HighImpactHeadline(report.Items)
		return v
	}

	v.Reason = fmt.Sprintf("mood %s, risk score %d", mood.Mood, mood.RiskScore)
	return v
}

// HighImpactHeadline returns the first headline labelled high impact, or "".
func HighImpactHeadline(items []model.NewsItem) string {
	for _, it := range items {
		if it.ImpactLabel == model.ImpactHigh {
			return it.Title
		}
	}
	return ""
}
