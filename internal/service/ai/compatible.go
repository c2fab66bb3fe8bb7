package ai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// CompatibleProvider implements Provider for OpenAI-compatible APIs
// (OpenRouter, Azure OpenAI, Ollama and the like).
type CompatibleProvider struct {
	client          openai.Client
	model           string
	thinking        bool
	thinkingBudget  int
	reasoningEffort string
	maxTokens       int
}

// NewCompatibleProvider creates a new OpenAI-compatible provider.
func NewCompatibleProvider(cfg Config) *CompatibleProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &CompatibleProvider{
		client:          openai.NewClient(opts...),
		model:           cfg.Model,
		thinking:        cfg.Thinking,
		thinkingBudget:  cfg.ThinkingBudget,
		reasoningEffort: cfg.ReasoningEffort,
		maxTokens:       cfg.MaxTokens,
	}
}

// Test sends a test message and returns the response.
func (p *CompatibleProvider) Test(ctx context.Context) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello world"),
		},
		MaxTokens: openai.Int(50),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, p.reasoningOption())
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider name.
func (p *CompatibleProvider) Name() string {
	return ProviderCompatible
}

// Complete generates a response without streaming.
func (p *CompatibleProvider) Complete(ctx context.Context, systemPrompt, content string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(content))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, p.reasoningOption())
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// reasoningOption builds the OpenRouter-style "reasoning" body field.
func (p *CompatibleProvider) reasoningOption() option.RequestOption {
	if !p.thinking {
		return option.WithJSONSet("reasoning", map[string]any{"enabled": false})
	}
	reasoning := map[string]any{}
	if p.reasoningEffort != "" {
		// Effort-based mode for o1/Grok models
		reasoning["effort"] = p.reasoningEffort
	} else if p.thinkingBudget > 0 {
		// Budget-based mode for Anthropic/Gemini models
		reasoning["max_tokens"] = p.thinkingBudget
	} else {
		reasoning["enabled"] = true
	}
	return option.WithJSONSet("reasoning", reasoning)
}
