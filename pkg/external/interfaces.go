// Package external holds the clients for services outside the process: the Gemini
// vision model that transcribes leave letters, and the caches in front of it.
package external

import (
	"context"
	"errors"
	"time"
)

// TextGenerator sends one document plus an instruction prompt to a vision model and
// returns the model's text answer.
type TextGenerator interface {
	GenerateText(ctx context.Context, mimeType string, data []byte, prompt string) (string, error)
}

// TranscriptCache stores transcriptions keyed by document digest.
type TranscriptCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `json:"max_requests"`
	Interval         time.Duration `json:"interval"`
	Timeout          time.Duration `json:"timeout"`
	FailureThreshold uint32        `json:"failure_threshold"`
}

// ErrEmptyTranscript is returned when the model answers with no text.
var ErrEmptyTranscript = errors.New("model returned empty response")

// ErrorPrefix starts every failure rendered by ErrorText.
const ErrorPrefix = "Error: "

// ErrorText renders an OCR failure in the "Error: ..." text form shown to users.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	return ErrorPrefix + err.Error()
}
