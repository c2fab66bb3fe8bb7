package ai

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ErrCapacity marks upstream rate-limit and quota/payment failures.
var ErrCapacity = errors.New("ai provider capacity exhausted")

// CapacityError wraps an upstream error that belongs to the capacity class.
type CapacityError struct {
	StatusCode int
	Err        error
}

func (e *CapacityError) Error() string {
	if e.Err == nil {
		return ErrCapacity.Error()
	}
	return ErrCapacity.Error() + ": " + e.Err.Error()
}

func (e *CapacityError) Unwrap() error {
	return e.Err
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// IsCapacityStatus reports whether an HTTP status is rate limiting (429) or
// payment/quota exhaustion (402).
func IsCapacityStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusPaymentRequired
}

// IsCapacityError reports whether err is a capacity-class failure.
func IsCapacityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCapacity) {
		return true
	}
	return IsCapacityStatus(statusOf(err))
}

// classifyError tags SDK errors that carry a capacity status.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if status := statusOf(err); IsCapacityStatus(status) {
		return &CapacityError{StatusCode: status, Err: err}
	}
	if msg := strings.ToLower(err.Error()); strings.Contains(msg, "insufficient_quota") {
		return &CapacityError{Err: err}
	}
	return err
}

func statusOf(err error) int {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	return 0
}
