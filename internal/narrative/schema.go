package narrative

import "github.com/abhisek/quizlens/internal/llm"

// SummarySchema defines the JSON schema for model-written summaries.
var SummarySchema = &llm.Schema{
	Name:        "quiz-narrative",
	Description: "Assessment of a graded quiz with a short study plan",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall": map[string]any{
				"type":        "string",
				"description": "One to four sentence overall assessment",
			},
			"start_here": map[string]any{
				"type":        "string",
				"description": "One concrete action to start with right now",
			},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Weak points, including the error percentage where known",
			},
			"plan": map[string]any{
				"type": "array",
				"items": map[string]any{
					"anyOf": []any{
						map[string]any{"type": "string"},
						map[string]any{
							"type": "object",
							"properties": map[string]any{
								"step":     map[string]any{"type": "string"},
								"duration": map[string]any{"type": "string"},
								"action":   map[string]any{"type": "string"},
								"resource_suggestion": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"type": map[string]any{"type": "string"},
										"name": map[string]any{"type": "string"},
									},
								},
							},
							"required": []any{"step"},
						},
					},
				},
			},
			"priority": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"motivationalMessage": map[string]any{
				"type": "string",
			},
		},
		"required": []any{"overall", "strengths", "weaknesses", "plan"},
	},
}
