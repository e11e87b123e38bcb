// Package llm defines the boundary between the refine stage and a language
// model backend (a local Ollama instance by default, or a hosted API).
package llm

import (
	"context"

	"github.com/MrWong99/termfix/pkg/types"
)

// Usage is the token accounting reported by the backend, in the model's own
// token unit.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest asks the model to answer Messages.
type CompletionRequest struct {
	// SystemPrompt is sent before Messages, as a system message when the
	// backend has no dedicated field.
	SystemPrompt string

	// Messages must not be empty. The last one carries the text to rewrite.
	Messages []types.Message

	// Temperature is in [0, 2]. Rewrites use values close to 0.
	Temperature float64

	// MaxTokens caps the answer. Zero leaves the provider default.
	MaxTokens int
}

// CompletionResponse is the model answer.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Provider is a language model backend. Implementations are safe for
// concurrent use and honour ctx cancellation.
type Provider interface {
	// Complete waits for the full answer to req.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates the prompt size of messages. It may overcount
	// but should not undercount; the refine stage sizes chunks with it.
	CountTokens(messages []types.Message) (int, error)

	// Capabilities describes the model. It is constant per Provider.
	Capabilities() types.ModelCapabilities
}
