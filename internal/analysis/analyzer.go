package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"call-insights/internal/ai"
)

// promptTemplateID identifies the prompt below so stored results can be
// traced back to the wording that produced them.
const promptTemplateID = "call-quality-v1"

const systemPrompt = `You are a service desk call quality analyst.
Given a call transcript, respond with a single JSON object with exactly these keys:
"sentiment" (positive|neutral|negative), "mood" (calm|frustrated|angry|satisfied),
"frustrationLevel" (low|medium|high), "clarity" (low|medium|high),
"helpfulness" (low|medium|high), "upsellOpportunity" (boolean),
"confidence" (number 0..1), "agentName" (string), "customerName" (string),
"summary" (string, at most three sentences).`

// completionPayload mirrors the JSON object the model is instructed to emit.
type completionPayload struct {
	Sentiment         string  `json:"sentiment"`
	Mood              string  `json:"mood"`
	FrustrationLevel  string  `json:"frustrationLevel"`
	Clarity           string  `json:"clarity"`
	Helpfulness       string  `json:"helpfulness"`
	UpsellOpportunity bool    `json:"upsellOpportunity"`
	Confidence        float64 `json:"confidence"`
	AgentName         string  `json:"agentName"`
	CustomerName      string  `json:"customerName"`
	Summary           string  `json:"summary"`
}

// Analyzer turns a transcript into a structured Result via one
// completion call. The prompt is built only from the inputs passed to
// Analyze, never from hidden state.
type Analyzer struct {
	completer ai.Completer
}

func NewAnalyzer(completer ai.Completer) *Analyzer {
	return &Analyzer{completer: completer}
}

// Input carries the call context the prompt is built from.
type Input struct {
	CallID      string
	CompanyName string
	PhoneNumber string
	Transcript  string
}

func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, fmt.Errorf("%w: transcript is empty", ErrInvalidArgument)
	}

	completion, err := a.completer.Complete(ctx, systemPrompt, buildUserPrompt(in), ai.Options{
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: completion: %w", err)
	}

	var payload completionPayload
	if err := json.Unmarshal([]byte(completion.Text), &payload); err != nil {
		return nil, fmt.Errorf("analysis: decode completion: %w", err)
	}

	return &Result{
		CallID:            in.CallID,
		Sentiment:         normalizeSentiment(payload.Sentiment),
		Mood:              normalizeMood(payload.Mood),
		FrustrationLevel:  normalizeLevel(payload.FrustrationLevel),
		Clarity:           normalizeLevel(payload.Clarity),
		Helpfulness:       normalizeLevel(payload.Helpfulness),
		UpsellOpportunity: payload.UpsellOpportunity,
		Confidence:        clampConfidence(payload.Confidence),
		AgentName:         strings.TrimSpace(payload.AgentName),
		CustomerName:      strings.TrimSpace(payload.CustomerName),
		Summary:           strings.TrimSpace(payload.Summary),
		PromptTemplateID:  promptTemplateID,
		ModelID:           completion.Model,
	}, nil
}

func buildUserPrompt(in Input) string {
	var b strings.Builder
	if in.CompanyName != "" {
		fmt.Fprintf(&b, "Client organisation: %s\n", in.CompanyName)
	}
	if in.PhoneNumber != "" {
		fmt.Fprintf(&b, "Customer phone number: %s\n", in.PhoneNumber)
	}
	b.WriteString("Transcript:\n")
	b.WriteString(in.Transcript)
	return b.String()
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return strings.ToLower(strings.TrimSpace(s))
	default:
		return SentimentUnknown
	}
}

func normalizeMood(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "calm", "frustrated", "angry", "satisfied":
		return strings.ToLower(strings.TrimSpace(s))
	default:
		return "unknown"
	}
}

func normalizeLevel(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelLow, LevelMedium, LevelHigh:
		return strings.ToLower(strings.TrimSpace(s))
	default:
		return LevelUnknown
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
