package ai

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

func TestIsCapacityError_SDKStatus(t *testing.T) {
	require.True(t, IsCapacityError(&openai.Error{StatusCode: http.StatusTooManyRequests}))
	require.True(t, IsCapacityError(fmt.Errorf("call: %w", &anthropic.Error{StatusCode: http.StatusPaymentRequired})))
	require.False(t, IsCapacityError(&openai.Error{StatusCode: http.StatusInternalServerError}))
	require.False(t, IsCapacityError(nil))
	require.False(t, IsCapacityError(errors.New("boom")))
}

func TestClassifyError(t *testing.T) {
	sdkErr := &openai.Error{StatusCode: http.StatusTooManyRequests}
	err := classifyError(sdkErr)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, http.StatusTooManyRequests, capErr.StatusCode)
	require.ErrorIs(t, err, ErrCapacity)
	require.ErrorIs(t, err, sdkErr)

	quota := classifyError(errors.New("insufficient_quota: check your plan"))
	require.True(t, IsCapacityError(quota))

	plain := errors.New("bad request")
	require.Equal(t, plain, classifyError(plain))
	require.NoError(t, classifyError(nil))
}

func TestCapacityError_Message(t *testing.T) {
	err := &CapacityError{Err: errors.New("slow down")}
	require.Equal(t, "ai provider capacity exhausted: slow down", err.Error())
	require.Equal(t, ErrCapacity.Error(), (&CapacityError{}).Error())
}

func TestOpenAIProvider_ReasoningModel(t *testing.T) {
	p := NewOpenAIProvider(Config{APIKey: "key", Model: "gpt-5-mini", Thinking: true, ReasoningEffort: "low"})
	require.True(t, p.isReasoningModel())
	require.True(t, p.useReasoning())

	p = NewOpenAIProvider(Config{APIKey: "key", Model: "gpt-4o", Thinking: true, ReasoningEffort: "low"})
	require.False(t, p.useReasoning())
}

func TestRateLimiter_SetLimit(t *testing.T) {
	r := NewRateLimiter(0)
	require.Equal(t, DefaultRateLimit, r.GetLimit())
	r.SetLimit(3)
	require.Equal(t, 3, r.GetLimit())
}
