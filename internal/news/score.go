// Package news fetches headlines for a symbol, labels each with a
// bag-of-words sentiment and impact, and aggregates them into the market
// mood the risk guard consumes.
package news

import (
	"math"
	"strings"
	"unicode"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

var positiveWords = map[string]bool{
	"surge": true, "surges": true, "soar": true, "soars": true, "rally": true, "rallies": true,
	"gain": true, "gains": true, "jump": true, "jumps": true, "beat": true, "beats": true,
	"record": true, "bullish": true, "upgrade": true, "upgraded": true, "growth": true,
	"profit": true, "profits": true, "rise": true, "rises": true, "strong": true,
	"approval": true, "approved": true, "buy": true, "outperform": true, "recovery": true,
}

var negativeWords = map[string]bool{
	"plunge": true, "plunges": true, "crash": true, "crashes": true, "fall": true, "falls": true,
	"drop": true, "drops": true, "slump": true, "loss": true, "losses": true, "miss": true,
	"misses": true, "bearish": true, "downgrade": true, "downgraded": true, "weak": true,
	"lawsuit": true, "probe": true, "fraud": true, "hack": true, "hacked": true, "ban": true,
	"bankrupt": true, "bankruptcy": true, "default": true, "sell": true, "selloff": true,
	"recession": true, "warning": true, "halt": true, "halts": true, "fine": true, "fined": true,
}

// highImpactWords mark headlines that can move a market on their own.
var highImpactWords = map[string]bool{
	"crash": true, "crashes": true, "halt": true, "halts": true, "bankrupt": true,
	"bankruptcy": true, "fraud": true, "hack": true, "hacked": true, "default": true,
	"ban": true, "sec": true, "lawsuit": true, "investigation": true, "recession": true,
	"war": true, "sanctions": true, "emergency": true, "delisted": true, "delisting": true,
}

const (
	wordWeight     = 25 // sentiment points per matched word
	moodThreshold  = 15 // |mean sentiment| needed for a non-neutral mood
	mediumImpactAt = 50 // |sentiment| at which an item is medium impact
)

func words(title string) []string {
	return strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ScoreHeadline labels one headline.
func ScoreHeadline(title string) (sentiment int, label model.Mood, impact string) {
	high := false
	for _, w := range words(title) {
		switch {
		case positiveWords[w]:
			sentiment += wordWeight
		case negativeWords[w]:
			sentiment -= wordWeight
		}
		if highImpactWords[w] {
			high = true
		}
	}
	sentiment = clamp(sentiment, -100, 100)

	switch {
	case sentiment > 0:
		label = model.MoodBullish
	case sentiment < 0:
		label = model.MoodBearish
	default:
		label = model.MoodNeutral
	}

	switch {
	case high:
		impact = model.ImpactHigh
	case sentiment >= mediumImpactAt || sentiment <= -mediumImpactAt:
		impact = model.ImpactMedium
	default:
		impact = model.ImpactLow
	}
	return sentiment, label, impact
}

// Label fills in the sentiment fields of every item.
func Label(items []model.NewsItem) {
	for i := range items {
		items[i].Sentiment, items[i].SentimentLabel, items[i].ImpactLabel = ScoreHeadline(items[i].Title)
	}
}

// Aggregate summarises labelled items. The sentiment score is the mean item
// sentiment. The risk score weighs the share of bearish headlines at 60
// points and the share of high-impact headlines at 40.
func Aggregate(items []model.NewsItem) model.MoodSummary {
	if len(items) == 0 {
		return model.MoodSummary{Mood: model.MoodNeutral}
	}
	var sum, bearish, high int
	for _, it := range items {
		sum += it.Sentiment
		if it.SentimentLabel == model.MoodBearish {
			bearish++
		}
		if it.ImpactLabel == model.ImpactHigh {
			high++
		}
	}
	n := float64(len(items))
	avg := int(math.Round(float64(sum) / n))
	risk := int(math.Round(60*float64(bearish)/n + 40*float64(high)/n))

	mood := model.MoodNeutral
	switch {
	case avg >= moodThreshold:
		mood = model.MoodBullish
	case avg <= -moodThreshold:
		mood = model.MoodBearish
	}
	return model.MoodSummary{
		SentimentScore: clamp(avg, -100, 100),
		RiskScore:      clamp(risk, 0, 100),
		Mood:           mood,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
