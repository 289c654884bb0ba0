package pipeline

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/scriven-ai/scriven/internal/jobs"
)

// Minimal structural schemas per phase. Deliberately loose: they pin the
// fields downstream consumers read, not the full prompt contract, so a
// model adding extra fields never fails a phase.
var phaseSchemas = map[jobs.PhaseKind]*jsonschema.Schema{
	jobs.PhaseScreening: mustCompile("screening.json", `{
		"type": "object",
		"required": ["summary"],
		"properties": {
			"domain": {"type": "string"},
			"relevance_score": {"type": "number"},
			"key_claims": {"type": "array"},
			"red_flags": {"type": "array"},
			"summary": {"type": "string"}
		}
	}`),
	jobs.PhaseVisual: mustCompile("visual.json", `{
		"type": "object",
		"required": ["summary"],
		"properties": {
			"figures": {"type": "array"},
			"overall_visual_quality": {"type": "string"},
			"summary": {"type": "string"}
		}
	}`),
	jobs.PhaseRecipe: mustCompile("recipe.json", `{
		"type": "object",
		"required": ["parameters"],
		"properties": {
			"parameters": {"type": "object"},
			"procedure_steps": {"type": "array"},
			"equipment": {"type": "array"},
			"materials": {"type": "array"},
			"missing_critical": {"type": "array"},
			"reproducibility_score": {"type": "number"},
			"summary": {"type": "string"}
		}
	}`),
	jobs.PhaseDeepDive: mustCompile("deep_dive.json", `{
		"type": "object",
		"required": ["summary"],
		"properties": {
			"claim_evidence_map": {"type": "array"},
			"overall_score": {"type": "number"},
			"verdict": {"type": "string"},
			"summary": {"type": "string"}
		}
	}`),
}

func mustCompile(name, schema string) *jsonschema.Schema {
	return jsonschema.MustCompileString(name, schema)
}

// validateShape checks a decoded payload against the phase schema.
func validateShape(kind jobs.PhaseKind, payload map[string]any) error {
	schema, ok := phaseSchemas[kind]
	if !ok {
		return nil
	}

	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("payload shape for %s: %w", kind, err)
	}
	return nil
}
