package news

import (
	"testing"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

func TestScoreHeadline(t *testing.T) {
	tests := []struct {
		title     string
		sentiment int
		label     model.Mood
		impact    string
	}{
		{"Shares surge to record after earnings beat", 75, model.MoodBullish, model.ImpactMedium},
		{"Exchange halts trading after hack", -50, model.MoodBearish, model.ImpactHigh},
		{"SEC opens investigation", 0, model.MoodNeutral, model.ImpactHigh},
		{"Company holds annual meeting", 0, model.MoodNeutral, model.ImpactLow},
		{"Stock falls", -25, model.MoodBearish, model.ImpactLow},
		{"crash crash crash crash crash", -100, model.MoodBearish, model.ImpactHigh},
	}
	for _, tt := range tests {
		s, l, i := ScoreHeadline(tt.title)
		if s != tt.sentiment || l != tt.label || i != tt.impact {
			t.Errorf("ScoreHeadline(%q) = %d %s %s, want %d %s %s", tt.title, s, l, i, tt.sentiment, tt.label, tt.impact)
		}
	}
}

func TestAggregate(t *testing.T) {
	if got := Aggregate(nil); got != (model.MoodSummary{Mood: model.MoodNeutral}) {
		t.Errorf("empty = %+v", got)
	}

	items := []model.NewsItem{
		{Title: "Exchange halts trading after hack"},
		{Title: "Token plunges on fraud probe"},
		{Title: "Stock falls"},
		{Title: "Company holds annual meeting"},
	}
	Label(items)
	got := Aggregate(items)
	// sentiments -50, -75, -25, 0 -> mean -37.5 -> -38 (round half away)
	// bearish 3/4 -> 45, high 2/4 -> 20
	want := model.MoodSummary{SentimentScore: -38, RiskScore: 65, Mood: model.MoodBearish}
	if got != want {
		t.Errorf("Aggregate = %+v, want %+v", got, want)
	}

	bull := []model.NewsItem{{Title: "rally continues"}, {Title: "quiet session"}}
	Label(bull)
	if m := Aggregate(bull); m.Mood != model.MoodNeutral || m.SentimentScore != 13 {
		t.Errorf("mild = %+v", m)
	}
}
