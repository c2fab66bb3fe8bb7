package ai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for Anthropic API.
type AnthropicProvider struct {
	client         anthropic.Client
	model          string
	thinking       bool
	thinkingBudget int
	maxTokens      int
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &AnthropicProvider{
		client:         anthropic.NewClient(opts...),
		model:          cfg.Model,
		thinking:       cfg.Thinking,
		thinkingBudget: cfg.ThinkingBudget,
		maxTokens:      cfg.MaxTokens,
	}
}

// Test sends a test message and returns the response.
func (p *AnthropicProvider) Test(ctx context.Context) (string, error) {
	params := anthropic.MessageNewParams{
		Model: anthropic.Model(p.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Hello world")),
		},
		MaxTokens: 50,
	}
	p.applyThinking(&params)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(err)
	}
	return textOf(resp), nil
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Complete generates a response without streaming.
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, content string) (string, error) {
	params := anthropic.MessageNewParams{
		Model: anthropic.Model(p.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(content)),
		},
		MaxTokens: int64(p.maxTokens),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	p.applyThinking(&params)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(err)
	}
	return textOf(resp), nil
}

// applyThinking enables extended thinking when configured and disables it
// explicitly otherwise (the API defaults it on for some models).
func (p *AnthropicProvider) applyThinking(params *anthropic.MessageNewParams) {
	if p.thinking && p.thinkingBudget > 0 {
		params.MaxTokens += int64(p.thinkingBudget)
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(p.thinkingBudget))
		return
	}
	disabled := anthropic.NewThinkingConfigDisabledParam()
	params.Thinking = anthropic.ThinkingConfigParamUnion{
		OfDisabled: &disabled,
	}
}

// textOf joins the text blocks of a response, skipping thinking blocks.
func textOf(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			b.WriteString(v.Text)
		}
	}
	return b.String()
}
