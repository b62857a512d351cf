package analysis

import "github.com/tankyu/diary/internal/llm"

var abilityObject = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":   map[string]any{"type": []any{"string", "null"}},
		"reason": map[string]any{"type": []any{"string", "null"}},
	},
	"required": []any{"name"},
}

// AnalysisSchema accepts both shapes the oracle answers with: one primary
// plus two sub competencies, or the older flat "abilities" list.
var AnalysisSchema = &llm.Schema{
	Name:        "report-analysis",
	Description: "Inquiry phase and demonstrated competencies of a diary report",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phase": map[string]any{"type": []any{"string", "null"}},
		},
		"anyOf": []any{
			map[string]any{
				"properties": map[string]any{
					"primary_ability": abilityObject,
					"sub_abilities": map[string]any{
						"type":     "array",
						"items":    abilityObject,
						"minItems": 2,
					},
				},
				"required": []any{"primary_ability", "sub_abilities"},
			},
			map[string]any{
				"properties": map[string]any{
					"abilities": map[string]any{"type": "array"},
				},
				"required": []any{"abilities"},
			},
		},
	},
}

var strictAbility = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"name":   map[string]any{"type": "string"},
		"reason": map[string]any{"type": "string"},
	},
	"required": []any{"name", "reason"},
}

// ClassificationSchema is sent with the classification request so providers
// constrain the answer natively. It admits only the primary plus two subs
// shape; every answer it accepts also satisfies AnalysisSchema.
var ClassificationSchema = &llm.Schema{
	Name:        "report-classification",
	Description: "Inquiry phase, one primary and two sub competencies of a diary report",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"phase":           map[string]any{"type": []any{"string", "null"}},
			"primary_ability": strictAbility,
			"sub_abilities": map[string]any{
				"type":     "array",
				"items":    strictAbility,
				"minItems": 2,
				"maxItems": 2,
			},
		},
		"required": []any{"phase", "primary_ability", "sub_abilities"},
	},
}
