package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-flash-lite", "gemini-2.0-flash-lite"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"score": map[string]any{"type": "integer"},
			"role":  map[string]any{"type": "string", "enum": []any{"strong", "sub", "none"}},
			"scores": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required": []any{"name", "score"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["name"].Type != "STRING" {
		t.Fatalf("expected STRING for name, got %s", schema.Properties["name"].Type)
	}
	if schema.Properties["score"].Type != "INTEGER" {
		t.Fatalf("expected INTEGER for score, got %s", schema.Properties["score"].Type)
	}
	if len(schema.Properties["role"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["role"].Enum))
	}
	if schema.Properties["scores"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for scores, got %s", schema.Properties["scores"].Type)
	}
	if schema.Properties["scores"].Items.Type != "INTEGER" {
		t.Fatalf("expected INTEGER for scores items, got %s", schema.Properties["scores"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestBuildGeminiSchema_NullableBoundsAndAnyOf(t *testing.T) {
	ability := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":   map[string]any{"type": "string"},
			"reason": map[string]any{"type": "string"},
		},
		"required": []any{"name", "reason"},
	}
	def := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"phase":           map[string]any{"type": []any{"string", "null"}},
			"primary_ability": ability,
			"sub_abilities": map[string]any{
				"type":     "array",
				"items":    ability,
				"minItems": 2,
				"maxItems": float64(2),
			},
		},
		"required": []any{"phase", "primary_ability", "sub_abilities"},
		"anyOf":    []any{map[string]any{"required": []any{"phase"}}},
	}

	schema := buildGeminiSchema(def)

	phase := schema.Properties["phase"]
	if phase.Type != "STRING" {
		t.Fatalf("expected STRING for nullable phase, got %s", phase.Type)
	}
	if phase.Nullable == nil || !*phase.Nullable {
		t.Fatal("expected phase to be nullable")
	}

	subs := schema.Properties["sub_abilities"]
	if subs.MinItems == nil || *subs.MinItems != 2 {
		t.Fatalf("expected minItems 2, got %v", subs.MinItems)
	}
	if subs.MaxItems == nil || *subs.MaxItems != 2 {
		t.Fatalf("expected maxItems 2, got %v", subs.MaxItems)
	}
	if subs.Items.Properties["name"].Type != "STRING" {
		t.Fatalf("expected STRING for sub ability name, got %s", subs.Items.Properties["name"].Type)
	}

	want := []string{"phase", "primary_ability", "sub_abilities"}
	if len(schema.PropertyOrdering) != len(want) {
		t.Fatalf("expected property ordering %v, got %v", want, schema.PropertyOrdering)
	}
	for i, name := range want {
		if schema.PropertyOrdering[i] != name {
			t.Fatalf("expected property ordering %v, got %v", want, schema.PropertyOrdering)
		}
	}
	if len(schema.AnyOf) != 1 || schema.AnyOf[0].Required[0] != "phase" {
		t.Fatalf("expected one anyOf branch requiring phase, got %+v", schema.AnyOf)
	}
}
