package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder converts text into a fixed-length vector.
// An empty vector is a valid return (the caller skips that chunk).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// Options tunes a single completion call.
type Options struct {
	Temperature float32
	MaxTokens   int
	// JSONMode forces the model to emit a JSON object.
	JSONMode bool
}

// Completion is one structured LLM completion with usage accounting.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Completer runs structured LLM completions.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (Completion, error)
	ModelName() string
}

type ClientConfig struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	CompletionModel string
}

// Client talks to the OpenAI API. It is consumed through its
// Embeddings() and Completions() views so each side reports the
// model actually serving it.
type Client struct {
	api             *openai.Client
	embeddingModel  string
	completionModel string
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai: api key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = openai.GPT4oMini
	}
	return &Client{
		api:             openai.NewClientWithConfig(conf),
		embeddingModel:  cfg.EmbeddingModel,
		completionModel: cfg.CompletionModel,
	}, nil
}

// Embeddings returns the embedding-scoped view of the client. Its
// ModelName identifies the model that produced the vectors, which is
// what gets stamped on per-chunk rows.
func (c *Client) Embeddings() Embedder { return embedderView{c} }

// Completions returns the completion-scoped view of the client.
func (c *Client) Completions() Completer { return completerView{c} }

type embedderView struct{ c *Client }

func (v embedderView) Embed(ctx context.Context, text string) ([]float32, error) {
	return v.c.embed(ctx, text)
}
func (v embedderView) ModelName() string { return v.c.embeddingModel }

type completerView struct{ c *Client }

func (v completerView) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (Completion, error) {
	return v.c.complete(ctx, systemPrompt, userPrompt, opts)
}
func (v completerView) ModelName() string { return v.c.completionModel }

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: c.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errors.New("ai: completion returned no choices")
	}
	return Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
