package llm

import (
	"context"
	"encoding/json"
)

// Provider is the text-completion service used by the narrative generator
// and the resource discovery pipeline. It is single request/response with
// no conversation state kept between calls.
type Provider interface {
	// Generate sends one prompt and returns the model output. When the
	// request carries a Schema, providers that support native structured
	// output are asked to honor it; callers still validate the result with
	// DecodeJSON because the service cannot be trusted to comply.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the service.
type Request struct {
	// System sets the model's role and output constraints.
	System string

	// Messages holds the prompt. Quizlens only sends single-turn requests.
	Messages []Message

	// Schema is the expected shape of the JSON the model should emit.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the prompt.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds the common single-message request body.
func UserPrompt(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema, kebab-case, e.g. "quiz-narrative".
	Name string

	Description string

	// Definition is the JSON Schema document as a map.
	Definition map[string]any

	// Strict requests strict structured output from providers that support
	// it. Strict mode requires every property to be listed as required.
	Strict bool
}

// Response holds the model output.
type Response struct {
	// Content is the raw text returned by the model. It usually holds one
	// JSON value, possibly wrapped in markdown fencing or prose.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the response content as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
