package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.0-pro",
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider. timeout bounds the
// underlying HTTP client; zero leaves it unbounded.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, timeout time.Duration) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := resolveModel(cfg.Model, geminiModels)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = buildGeminiSchema(req.Schema.Definition)
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, buildGeminiContents(req.Messages), config)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &ErrRejected{Err: fmt.Errorf("gemini blocked prompt: %s", fb.BlockReason)}
	}

	content := json.RawMessage(result.Text())
	switch stop := mapGeminiStopReason(result); stop {
	case "max_tokens":
		return nil, &ErrMaxTokensExceeded{Content: content}
	case "blocked":
		return nil, &ErrRejected{Err: fmt.Errorf("gemini withheld completion: %s", result.Candidates[0].FinishReason)}
	}

	resp := &Response{
		Content:    content,
		Model:      p.model,
		StopReason: "end",
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		}
	}
	return out
}

// buildGeminiSchema converts a JSON Schema definition map to a genai.Schema.
// Gemini has no additionalProperties; it is dropped. Property order follows
// the required list so the model emits keys in a stable order.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	switch t := def["type"].(type) {
	case string:
		schema.Type = mapGeminiType(t)
	case []any:
		// ["string", "null"] style unions.
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				schema.Nullable = genai.Ptr(true)
				continue
			}
			schema.Type = mapGeminiType(name)
		}
	}
	schema.Description, _ = def["description"].(string)
	schema.Format, _ = def["format"].(string)
	schema.Required = stringList(def["required"])
	schema.Enum = stringList(def["enum"])

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGeminiSchema(propDef)
			}
		}
		schema.PropertyOrdering = propertyOrder(schema.Required, props)
	}
	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}
	if n, ok := toInt64(def["minItems"]); ok {
		schema.MinItems = genai.Ptr(n)
	}
	if n, ok := toInt64(def["maxItems"]); ok {
		schema.MaxItems = genai.Ptr(n)
	}
	return schema
}

// stringList accepts both decoded JSON ([]any) and Go-literal ([]string)
// lists.
func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return append([]string(nil), l...)
	case []any:
		var out []string
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func propertyOrder(required []string, props map[string]any) []string {
	order := make([]string, 0, len(props))
	seen := make(map[string]bool, len(props))
	for _, k := range required {
		if _, ok := props[k]; ok && !seen[k] {
			order = append(order, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(props))
	for k := range props {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func mapGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// mapGeminiStopReason folds Gemini finish reasons into "end", "max_tokens"
// or "blocked". Safety and recitation stops leave no usable text.
func mapGeminiStopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) == 0 {
		return "end"
	}
	switch result.Candidates[0].FinishReason {
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	case genai.FinishReasonSafety, genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return "blocked"
	}
	return "end"
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
