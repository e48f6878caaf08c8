package model

import "time"

// Mood is the aggregate market mood derived from headlines.
type Mood string

const (
	MoodBullish Mood = "bullish"
	MoodBearish Mood = "bearish"
	MoodNeutral Mood = "neutral"
)

// Impact labels attached to individual headlines.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// MoodSummary is a read-only snapshot of headline sentiment for a symbol.
type MoodSummary struct {
	SentimentScore int  `json:"sentimentScore"` // [-100, 100]
	RiskScore      int  `json:"riskScore"`      // [0, 100]
	Mood           Mood `json:"mood"`
}

// NewsItem is a single scored headline.
type NewsItem struct {
	Title          string    `json:"title"`
	Link           string    `json:"link,omitempty"`
	Published      time.Time `json:"published,omitempty"`
	Sentiment      int       `json:"sentiment"`
	SentimentLabel Mood      `json:"sentimentLabel"`
	ImpactLabel    string    `json:"impactLabel"`
}

// NewsReport is the payload served by the market news endpoint.
type NewsReport struct {
	Symbol    string      `json:"symbol"`
	Items     []NewsItem  `json:"items"`
	Mood      MoodSummary `json:"mood"`
	FetchedAt time.Time   `json:"fetchedAt"`
}
