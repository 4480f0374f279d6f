package ai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClientViewsReportTheirOwnModel(t *testing.T) {
	c, err := NewClient(ClientConfig{
		APIKey:          "test-key",
		EmbeddingModel:  "text-embedding-3-small",
		CompletionModel: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var e Embedder = c.Embeddings()
	if got := e.ModelName(); got != "text-embedding-3-small" {
		t.Fatalf("Embedder.ModelName() = %q, want the embedding model", got)
	}

	var cp Completer = c.Completions()
	if got := cp.ModelName(); got != "gpt-4o-mini" {
		t.Fatalf("Completer.ModelName() = %q, want the completion model", got)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.Embeddings().ModelName(); got != string(openai.SmallEmbedding3) {
		t.Fatalf("default embedding model = %q", got)
	}
	if got := c.Completions().ModelName(); got != openai.GPT4oMini {
		t.Fatalf("default completion model = %q", got)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("expected an error for a blank api key")
	}
}
