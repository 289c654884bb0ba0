package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scriven-ai/scriven/internal/jobs"
	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/pipeline"
	"github.com/scriven-ai/scriven/pkg/parsing"
)

// categoryRouting maps planner categories to render kinds. Structural
// categories become Mermaid diagrams; physical ones are recorded for an
// external illustrator.
var categoryRouting = map[string]RenderKind{
	"experimental_protocol":   RenderMermaid,
	"algorithm_flow":          RenderMermaid,
	"signal_flow":             RenderMermaid,
	"system_architecture":     RenderMermaid,
	"component_relationships": RenderMermaid,
	"timeline":                RenderMermaid,
	"comparison":              RenderMermaid,
	"equipment_appearance":    RenderIllustration,
	"optical_table_layout":    RenderIllustration,
	"cell_molecule_schematic": RenderIllustration,
	"physical_setup":          RenderIllustration,
	"conceptual_illustration": RenderIllustration,
}

// Keyword fallback when the planner returns an unknown category.
var (
	structuralKeywords = []string{
		"protocol", "procedure", "step", "workflow", "algorithm", "pipeline",
		"data flow", "signal flow", "sequence", "architecture", "component",
		"relationship", "dependency", "hierarchy", "timeline", "flowchart",
	}
	illustrationKeywords = []string{
		"appearance", "photo", "3d", "layout", "setup", "bench",
		"optical table", "equipment", "cell", "molecule", "schematic",
		"illustration", "physical", "morphology", "device", "cross-section",
	}
)

const plannerPrompt = `You are a visualization planner for a research paper analysis system.

Given the analysis results below, identify the elements that would benefit from
a diagram or illustration. Classify each into one of two rendering targets:

MERMAID targets (text/structural diagrams): experimental protocols, algorithm or
data flow, signal flow, system architecture, component relationships, timelines,
comparisons.

ILLUSTRATION targets (physical/visual): equipment appearance, lab bench layout,
cell or molecule schematics, physical setups, conceptual illustrations.

For each target output a JSON object with:
- "type": diagram type (flowchart, sequence, state, class, conceptual)
- "title": short descriptive title
- "render_target": "mermaid" or "illustration"
- "category": a short snake_case category name
- "description": 2-3 sentence description of what to visualize
- "nodes": list of {"id": "...", "label": "...", "detail": "..."} (mermaid only)
- "edges": list of {"from": "...", "to": "...", "label": "..."} (mermaid only)

Return a JSON object: {"diagrams": [...]}. Return ONLY valid JSON.`

// Planner selects visualization targets from completed phase payloads. The
// planning call uses the reasoning model; any planning failure falls back
// to heuristic extraction so a completed analysis always yields diagrams
// when the payloads support them.
type Planner struct {
	adapter pipeline.Adapter
	logger  *slog.Logger
}

// NewPlanner creates a Planner over the given adapter. A nil adapter
// disables the planning call and uses heuristics only.
func NewPlanner(adapter pipeline.Adapter, logger *slog.Logger) *Planner {
	return &Planner{
		adapter: adapter,
		logger:  logger.With("system", "viz.planner"),
	}
}

// Plan returns the visualization targets for a job's results.
func (p *Planner) Plan(ctx context.Context, results pipeline.Results) []Target {
	recipe := results[jobs.PhaseRecipe]
	deepDive := results[jobs.PhaseDeepDive]

	if p.adapter != nil {
		targets, err := p.planWithModel(ctx, recipe, deepDive)
		if err == nil && len(targets) > 0 {
			p.logger.Info("planning call selected targets", "count", len(targets))
			return targets
		}
		if err != nil {
			p.logger.Warn("planning call failed, using heuristics", "error", err)
		}
	}

	targets := heuristicTargets(recipe, deepDive)
	p.logger.Info("heuristic planning selected targets", "count", len(targets))
	return targets
}

func (p *Planner) planWithModel(ctx context.Context, recipe, deepDive map[string]any) ([]Target, error) {
	var parts []string
	if len(recipe) > 0 {
		data, err := json.Marshal(recipe)
		if err != nil {
			return nil, fmt.Errorf("marshal recipe payload: %w", err)
		}
		parts = append(parts, "=== Recipe Extraction ===\n"+string(data))
	}
	if len(deepDive) > 0 {
		data, err := json.Marshal(deepDive)
		if err != nil {
			return nil, fmt.Errorf("marshal deep dive payload: %w", err)
		}
		parts = append(parts, "=== Deep Dive Analysis ===\n"+string(data))
	}
	if len(parts) == 0 {
		return nil, nil
	}

	resp, err := p.adapter.Invoke(ctx, llm.Request{
		Model:        llm.ModelPro,
		System:       plannerPrompt,
		Prompt:       "--- Analysis Results ---\n\n" + strings.Join(parts, "\n\n"),
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsing.Validate(resp.RawText)
	if err != nil {
		return nil, err
	}

	return decodeTargets(payload)
}

func decodeTargets(payload map[string]any) ([]Target, error) {
	raw, err := json.Marshal(payload["diagrams"])
	if err != nil {
		return nil, fmt.Errorf("marshal diagrams: %w", err)
	}

	var targets []Target
	if err := json.Unmarshal(raw, &targets); err != nil {
		return nil, fmt.Errorf("decode diagrams: %w", err)
	}

	for i := range targets {
		if targets[i].Title == "" {
			targets[i].Title = "Untitled Diagram"
		}
		if targets[i].Type == "" {
			targets[i].Type = "flowchart"
		}
		if targets[i].RenderKind != RenderMermaid && targets[i].RenderKind != RenderIllustration {
			targets[i].RenderKind = classifyRenderKind(targets[i].Category, targets[i].Description)
		}
	}

	return targets, nil
}

// classifyRenderKind resolves a render kind from the category table, then
// from keyword scoring over the category and description text.
func classifyRenderKind(category, description string) RenderKind {
	if kind, ok := categoryRouting[category]; ok {
		return kind
	}

	combined := strings.ToLower(category + " " + description)
	var structural, illustration int
	for _, kw := range structuralKeywords {
		if strings.Contains(combined, kw) {
			structural++
		}
	}
	for _, kw := range illustrationKeywords {
		if strings.Contains(combined, kw) {
			illustration++
		}
	}

	if illustration > structural {
		return RenderIllustration
	}
	return RenderMermaid
}

// heuristicTargets extracts targets directly from the structured payloads
// when the planning call is unavailable or returned nothing usable.
func heuristicTargets(recipe, deepDive map[string]any) []Target {
	var targets []Target

	if steps := stringSlice(recipe["procedure_steps"]); len(steps) > 0 {
		targets = append(targets, protocolTarget(steps))
	}

	if equipment := stringSlice(recipe["equipment"]); len(equipment) > 0 {
		desc := "Equipment and setup: " + strings.Join(truncateSlice(equipment, 10), ", ")
		if materials := stringSlice(recipe["materials"]); len(materials) > 0 {
			desc += ". Materials: " + strings.Join(truncateSlice(materials, 10), ", ")
		}
		targets = append(targets, Target{
			Type:        "conceptual",
			Title:       "Experimental Setup",
			RenderKind:  RenderIllustration,
			Category:    "physical_setup",
			Description: desc,
		})
	}

	if params, ok := recipe["parameters"].(map[string]any); ok && len(params) >= 4 {
		targets = append(targets, parametersTarget(params))
	}

	if summary, ok := deepDive["summary"].(string); ok && len(summary) > 100 {
		targets = append(targets, logicFlowTarget())
	}

	return targets
}

func protocolTarget(steps []string) Target {
	var nodes []Node
	var edges []Edge
	for i, step := range steps {
		id := nodeID(i)
		label := step
		if len(label) > 60 {
			label = label[:57] + "..."
		}
		nodes = append(nodes, Node{ID: id, Label: label})
		if i > 0 {
			edges = append(edges, Edge{From: nodeID(i - 1), To: id})
		}
	}

	return Target{
		Type:        "flowchart",
		Title:       "Experimental Protocol",
		RenderKind:  RenderMermaid,
		Category:    "experimental_protocol",
		Description: "Step-by-step experimental protocol extracted from the methods section.",
		Nodes:       nodes,
		Edges:       edges,
	}
}

func parametersTarget(params map[string]any) Target {
	var nodes []Node
	i := 0
	for name, value := range params {
		if i >= 12 {
			break
		}
		nodes = append(nodes, Node{
			ID:     fmt.Sprintf("P%d", i),
			Label:  name,
			Detail: paramDetail(value),
		})
		i++
	}

	return Target{
		Type:        "flowchart",
		Title:       "Key Parameters Overview",
		RenderKind:  RenderMermaid,
		Category:    "component_relationships",
		Description: "Overview of key experimental parameters and their values.",
		Nodes:       nodes,
	}
}

func logicFlowTarget() Target {
	return Target{
		Type:        "flowchart",
		Title:       "Research Logic Flow",
		RenderKind:  RenderMermaid,
		Category:    "algorithm_flow",
		Description: "High-level flow of the research: motivation, approach, results, conclusions.",
		Nodes: []Node{
			{ID: "M", Label: "Research Motivation"},
			{ID: "A", Label: "Approach / Method"},
			{ID: "R", Label: "Key Results"},
			{ID: "C", Label: "Conclusions"},
		},
		Edges: []Edge{
			{From: "M", To: "A", Label: "leads to"},
			{From: "A", To: "R", Label: "produces"},
			{From: "R", To: "C", Label: "supports"},
		},
	}
}

func paramDetail(value any) string {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", value)
	}

	detail := fmt.Sprintf("%v", m["value"])
	if unit, ok := m["unit"].(string); ok && unit != "" {
		detail += " " + unit
	}
	return detail
}

func nodeID(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("N%d", i)
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncateSlice(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
