package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"call-insights/internal/ai"
)

const agentIDSystemPrompt = `You read service desk call transcripts.
Identify the staff member (the agent) handling the call, if the transcript names one.
Respond with a single JSON object: {"agentName": "<name>"} or {"agentName": null}
when no staff member is identifiable. Do not guess.`

// identifyAgentName asks the completion adapter to name the staff
// member in the transcript. An empty string is a normal outcome
// (voicemail, IVR, nobody named), not an error.
func identifyAgentName(ctx context.Context, completer ai.Completer, transcript string) (string, error) {
	completion, err := completer.Complete(ctx, agentIDSystemPrompt, transcript, ai.Options{
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return "", fmt.Errorf("pipeline: agent identification: %w", err)
	}

	var payload struct {
		AgentName *string `json:"agentName"`
	}
	if err := json.Unmarshal([]byte(completion.Text), &payload); err != nil {
		return "", fmt.Errorf("pipeline: decode agent identification: %w", err)
	}
	if payload.AgentName == nil {
		return "", nil
	}
	return strings.TrimSpace(*payload.AgentName), nil
}
