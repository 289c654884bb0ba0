package pipeline

import (
	"strings"

	"github.com/scriven-ai/scriven/internal/agents"
	"github.com/scriven-ai/scriven/internal/jobs"
)

// Base system prompts per phase. The agent overlay and parameter list are
// appended at request time; the model must answer in bare JSON so the
// validator sees structure, not prose.
var basePrompts = map[jobs.PhaseKind]string{
	jobs.PhaseScreening: "You are a scientific paper screening assistant. " +
		"Analyze the abstract and conclusion to determine the paper's domain, " +
		"key claims, methodology type, and potential red flags.\n" +
		"Respond ONLY with valid JSON.",
	jobs.PhaseVisual: "You are a scientific figure analysis specialist. " +
		"Examine each figure description carefully: check axis labels, scales, " +
		"error bars, data presentation quality, and consistency with captions.\n" +
		"Respond ONLY with valid JSON.",
	jobs.PhaseRecipe: "You are a scientific methodology extraction specialist. " +
		"Extract ALL experimental parameters, procedures, equipment, and materials.\n" +
		"For each parameter, tag it:\n" +
		"  [EXPLICIT] - directly stated in the text with exact value\n" +
		"  [INFERRED] - calculated or inferred from context\n" +
		"  [MISSING] - not found but expected for this type of experiment\n" +
		"Respond ONLY with valid JSON.",
	jobs.PhaseDeepDive: "You are a rigorous scientific paper critic. " +
		"Evaluate claims vs evidence, check error propagation, verify physical " +
		"constraints, and assess overall scientific quality.\n" +
		"Be thorough but fair. Identify both strengths and weaknesses.\n" +
		"Respond ONLY with valid JSON.",
}

// Response shape instructions appended to the user prompt per phase.
var responseInstructions = map[jobs.PhaseKind]string{
	jobs.PhaseScreening: `Produce a JSON object with these fields:
  "domain": string (optics | bio | ai_ml | ee | unknown),
  "relevance_score": float 0.0-1.0,
  "key_claims": list of strings (max 5),
  "methodology_type": string (experimental | computational | theoretical | review | mixed),
  "red_flags": list of strings (empty if none),
  "summary": string (2-3 sentences)`,
	jobs.PhaseVisual: `Analyze ALL figures above. Return JSON with:
  "figures": list of objects with fields:
    "figure_id", "type", "axes" {"x", "y", "scale"}, "has_error_bars",
    "data_quality" (excellent | good | fair | poor), "observations", "issues"
  "overall_visual_quality": (excellent | good | fair | poor),
  "summary": string (2-3 sentences)`,
	jobs.PhaseRecipe: `Extract ALL experimental parameters and procedures. Return JSON with:
  "parameters": object mapping parameter names to:
    {"value": ..., "unit": ..., "tag": "EXPLICIT"|"INFERRED"|"MISSING", "source": ...},
  "procedure_steps": ordered list of procedure steps,
  "equipment": list of equipment used,
  "materials": list of materials/chemicals,
  "missing_critical": list of parameters that SHOULD be reported but are missing,
  "reproducibility_score": float 0.0-1.0,
  "summary": string (2-3 sentences)`,
	jobs.PhaseDeepDive: `Perform deep critical analysis. Return JSON with:
  "claim_evidence_map": list of {claim, evidence, strength, issues},
  "error_analysis": {propagation_issues, statistical_concerns, systematic_risks},
  "physical_constraints": {satisfied, violated, unchecked},
  "novelty_assessment": string,
  "limitations_acknowledged": list,
  "limitations_missed": list,
  "overall_score": float 0.0-10.0,
  "verdict": string (1-2 sentences),
  "summary": string (3-5 sentences)`,
}

// buildSystem composes the phase system prompt: base instructions, the
// agent's domain overlay, and for the extraction phase the parameter list
// the agent requires.
func buildSystem(kind jobs.PhaseKind, agent *agents.Agent) string {
	var b strings.Builder
	b.WriteString(basePrompts[kind])

	if agent != nil {
		if overlay := agent.PromptFor(string(kind)); overlay != "" {
			b.WriteString("\n\n--- Domain Agent Instructions ---\n")
			b.WriteString(overlay)
		}
		if kind == jobs.PhaseRecipe && len(agent.RecipeParameters) > 0 {
			b.WriteString("\n\nDomain parameters to extract: ")
			b.WriteString(strings.Join(agent.RecipeParameters, ", "))
		}
	}

	return b.String()
}

// buildPrompt appends the response shape instructions to the assembled
// section text.
func buildPrompt(kind jobs.PhaseKind, input string) string {
	return input + "\n\n" + responseInstructions[kind]
}
