package analysis

import "time"

// Enum values produced by the structured completion. Unknown values
// from the model are normalized to the "unknown" member rather than
// failing the call.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
	SentimentUnknown  = "unknown"
)

const (
	LevelLow     = "low"
	LevelMedium  = "medium"
	LevelHigh    = "high"
	LevelUnknown = "unknown"
)

// Result is the structured quality assessment of one call. There is at
// most one Result per call; reprocessing replaces it wholesale.
type Result struct {
	ID                string
	CallID            string
	Sentiment         string
	Mood              string
	FrustrationLevel  string
	Clarity           string
	Helpfulness       string
	UpsellOpportunity bool
	Confidence        float64
	AgentName         string
	CustomerName      string
	Summary           string
	PromptTemplateID  string
	ModelID           string
	CreatedAt         time.Time
}
