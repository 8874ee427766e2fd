package resources

import "github.com/abhisek/quizlens/internal/llm"

var resourceItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":       map[string]any{"type": "string"},
		"url":         map[string]any{"type": "string"},
		"source":      map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"type":        map[string]any{"type": "string"},
	},
	"required": []any{"title", "url"},
}

// CandidateSchema is the shape of a candidate or replacement list.
var CandidateSchema = &llm.Schema{
	Name:        "resource-candidates",
	Description: "Candidate learning resources on trusted domains",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resources": map[string]any{
				"type":  "array",
				"items": resourceItemSchema,
			},
		},
		"required": []any{"resources"},
	},
}

// RefinementSchema is the shape of a topic refinement.
var RefinementSchema = &llm.Schema{
	Name:        "topic-refinement",
	Description: "Subject topic inferred from a missed question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":   map[string]any{"type": "string", "description": "Subject topic, e.g. 'Phương trình bậc nhất'"},
			"chapter": map[string]any{"type": "string", "description": "Curriculum chapter"},
			"keywords": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"mistake": map[string]any{"type": "string", "description": "Likely mistake in plain language"},
		},
		"required": []any{"topic"},
	},
}

type candidateList struct {
	Resources []Resource `json:"resources"`
}
