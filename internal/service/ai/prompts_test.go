package ai_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"touchline/backend/internal/service/ai"
)

func TestWrapInput(t *testing.T) {
	wrapped := ai.WrapInput("test content")
	require.Contains(t, wrapped, "<input>\ntest content\n</input>")
	require.Contains(t, wrapped, "DATA only")
}

func TestGetArticleTranslatePrompt_UsesLanguageNames(t *testing.T) {
	prompt := ai.GetArticleTranslatePrompt("en", "ht")
	require.Contains(t, prompt, "<source_language>English</source_language>")
	require.Contains(t, prompt, "<target_language>Kreyòl Ayisyen</target_language>")
}

func TestGetArticleTranslatePrompt_UnknownLanguage(t *testing.T) {
	prompt := ai.GetArticleTranslatePrompt("en", "xx")
	require.Contains(t, prompt, "<target_language>xx</target_language>")
}

func TestGetArticleTranslatePrompt_JSONContract(t *testing.T) {
	prompt := ai.GetArticleTranslatePrompt("fr", "es")
	for _, key := range ai.TranslationKeys {
		require.Contains(t, prompt, `"`+key+`"`)
	}
	require.Contains(t, prompt, "ONLY a JSON object")
	require.Contains(t, prompt, "<security_critical>")
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := ai.NewProvider(ai.Config{Provider: ai.ProviderOpenAI, Model: "gpt-4o"})
	require.ErrorIs(t, err, ai.ErrMissingAPIKey)

	_, err = ai.NewProvider(ai.Config{Provider: ai.ProviderOpenAI, APIKey: "key"})
	require.ErrorIs(t, err, ai.ErrMissingModel)

	_, err = ai.NewProvider(ai.Config{Provider: ai.ProviderCompatible, APIKey: "key", Model: "m"})
	require.ErrorIs(t, err, ai.ErrMissingBaseURL)

	_, err = ai.NewProvider(ai.Config{Provider: "other", APIKey: "key", Model: "m"})
	require.ErrorIs(t, err, ai.ErrInvalidProvider)
}

func TestNewProvider_Names(t *testing.T) {
	provider, err := ai.NewProvider(ai.Config{Provider: ai.ProviderAnthropic, APIKey: "key", Model: "claude-3", BaseURL: "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, ai.ProviderAnthropic, provider.Name())

	provider, err = ai.NewProvider(ai.Config{Provider: ai.ProviderOpenAI, APIKey: "key", Model: "gpt-5-mini"})
	require.NoError(t, err)
	require.Equal(t, ai.ProviderOpenAI, provider.Name())

	provider, err = ai.NewProvider(ai.Config{Provider: ai.ProviderCompatible, APIKey: "key", Model: "m", BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	require.Equal(t, ai.ProviderCompatible, provider.Name())
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "Goal in the 90th minute.", ai.Excerpt("<p>Goal in the</p>\n<p>90th minute.</p>", 200))
	require.Equal(t, "Kreyò", ai.Excerpt("<p>Kreyòl Ayisyen</p>", 5))
	require.Equal(t, "", ai.Excerpt("<script>x()</script>", 10))
}
