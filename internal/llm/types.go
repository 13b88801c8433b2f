// Package llm defines the summarization client interface and its OpenAI
// implementation. Providers are interchangeable behind Completer.
package llm

import (
	"context"
	"encoding/json"
)

// Completer is the core abstraction for the summarization backend.
// CompleteJSON sends a system instruction and a user instruction, requests a
// JSON-object-formatted reply, and returns the raw JSON text.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error)
}
