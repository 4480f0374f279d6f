package ai

import "context"

// FakeEmbedder returns canned vectors keyed by input text. Inputs with
// no canned vector fall back to Default. A nil Default with no match
// yields an empty vector.
type FakeEmbedder struct {
	Vectors map[string][]float32
	Default []float32
	Err     error
	Model   string

	Calls []string
}

func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls = append(f.Calls, text)
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.Vectors[text]; ok {
		return v, nil
	}
	return f.Default, nil
}

func (f *FakeEmbedder) ModelName() string {
	if f.Model == "" {
		return "fake-embedding"
	}
	return f.Model
}

// FakeCompleter returns a fixed completion text.
type FakeCompleter struct {
	Text  string
	Err   error
	Model string

	SystemPrompts []string
	UserPrompts   []string
}

func (f *FakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string, _ Options) (Completion, error) {
	f.SystemPrompts = append(f.SystemPrompts, systemPrompt)
	f.UserPrompts = append(f.UserPrompts, userPrompt)
	if f.Err != nil {
		return Completion{}, f.Err
	}
	return Completion{Text: f.Text, Model: f.ModelName()}, nil
}

func (f *FakeCompleter) ModelName() string {
	if f.Model == "" {
		return "fake-completion"
	}
	return f.Model
}
