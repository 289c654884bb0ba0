package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/scriven-ai/scriven/internal/llm"
	"github.com/scriven-ai/scriven/internal/pipeline"
)

const mermaidSystem = `You convert structured diagram specs into Mermaid code.
Output ONLY the Mermaid source. No markdown fences, no frontmatter, no
accTitle or accDescr directives, no explanation. Quote node labels that
contain parentheses, colons, or other special characters.`

var (
	accLineRe     = regexp.MustCompile(`(?m)^\s*acc(Title|Descr)\s*:.*$`)
	frontmatterRe = regexp.MustCompile(`(?s)^\s*---\s*\n.*?\n\s*---\s*\n?`)
	unsafeIDRe    = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// Generator turns planner targets into Mermaid source. The primary path
// asks the text model to render the spec; when the call fails the local
// templates produce a plain diagram from the nodes and edges so fan-out
// still yields something renderable.
type Generator struct {
	adapter pipeline.Adapter
	logger  *slog.Logger
}

// NewGenerator creates a Generator over the given adapter. A nil adapter
// uses templates only.
func NewGenerator(adapter pipeline.Adapter, logger *slog.Logger) *Generator {
	return &Generator{
		adapter: adapter,
		logger:  logger.With("system", "viz.mermaid"),
	}
}

// Generate returns cleaned Mermaid source for one target.
func (g *Generator) Generate(ctx context.Context, target Target) (string, error) {
	if g.adapter != nil {
		code, err := g.generateWithModel(ctx, target)
		if err == nil && code != "" {
			return code, nil
		}
		if err != nil {
			g.logger.Warn("model generation failed, using template",
				"title", target.Title,
				"error", err,
			)
		}
	}

	code := CleanDiagram(renderTemplate(target))
	if code == "" {
		return "", fmt.Errorf("no diagram content for %q", target.Title)
	}
	return code, nil
}

func (g *Generator) generateWithModel(ctx context.Context, target Target) (string, error) {
	spec, err := json.Marshal(target)
	if err != nil {
		return "", fmt.Errorf("marshal target spec: %w", err)
	}

	resp, err := g.adapter.Invoke(ctx, llm.Request{
		Model:  llm.ModelSonnet,
		System: mermaidSystem,
		Prompt: "Generate Mermaid code for this diagram spec:\n\n" + string(spec),
	})
	if err != nil {
		return "", err
	}

	return CleanDiagram(resp.RawText), nil
}

// CleanDiagram strips markdown fences, YAML frontmatter, and accessibility
// directives that break strict Mermaid parsers.
func CleanDiagram(code string) string {
	code = strings.TrimSpace(code)

	if strings.HasPrefix(code, "```mermaid") {
		code = strings.TrimSpace(code[len("```mermaid"):])
	} else if strings.HasPrefix(code, "```") {
		code = strings.TrimSpace(code[3:])
	}
	if strings.HasSuffix(code, "```") {
		code = strings.TrimSpace(code[:len(code)-3])
	}

	code = frontmatterRe.ReplaceAllString(code, "")
	code = accLineRe.ReplaceAllString(code, "")

	return strings.TrimSpace(code)
}

// renderTemplate builds plain Mermaid source from the target's structure.
func renderTemplate(target Target) string {
	switch target.Type {
	case "sequence":
		return buildSequence(target)
	case "state":
		return buildState(target)
	default:
		return buildFlowchart(target)
	}
}

func buildFlowchart(target Target) string {
	direction := "LR"
	if len(target.Nodes) > 6 {
		direction = "TD"
	}
	lines := []string{"graph " + direction}

	for _, node := range target.Nodes {
		label := escapeLabel(node.Label)
		if node.Detail != "" {
			label += "<br/>" + escapeLabel(node.Detail)
		}
		lines = append(lines, fmt.Sprintf("    %s[%q]", sanitizeID(node.ID), label))
	}

	lines = append(lines, flowEdges(target)...)

	return strings.Join(lines, "\n")
}

func buildSequence(target Target) string {
	lines := []string{"sequenceDiagram"}

	for _, node := range target.Nodes {
		lines = append(lines, fmt.Sprintf("    participant %s as %s",
			sanitizeID(node.ID), escapeLabel(node.Label)))
	}

	for _, edge := range target.Edges {
		lines = append(lines, fmt.Sprintf("    %s->>+%s: %s",
			sanitizeID(edge.From), sanitizeID(edge.To), escapeLabel(edge.Label)))
	}

	return strings.Join(lines, "\n")
}

func buildState(target Target) string {
	lines := []string{"stateDiagram-v2"}

	for _, node := range target.Nodes {
		lines = append(lines, fmt.Sprintf("    %s : %s",
			sanitizeID(node.ID), escapeLabel(node.Label)))
	}

	for _, edge := range target.Edges {
		line := fmt.Sprintf("    %s --> %s", sanitizeID(edge.From), sanitizeID(edge.To))
		if edge.Label != "" {
			line += " : " + escapeLabel(edge.Label)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// flowEdges renders the declared edges, or a sequential chain when the
// planner gave nodes without edges.
func flowEdges(target Target) []string {
	var lines []string

	if len(target.Edges) == 0 && len(target.Nodes) > 1 {
		for i := 0; i < len(target.Nodes)-1; i++ {
			lines = append(lines, fmt.Sprintf("    %s --> %s",
				sanitizeID(target.Nodes[i].ID), sanitizeID(target.Nodes[i+1].ID)))
		}
		return lines
	}

	for _, edge := range target.Edges {
		if edge.Label != "" {
			lines = append(lines, fmt.Sprintf("    %s -->|%s| %s",
				sanitizeID(edge.From), escapeLabel(edge.Label), sanitizeID(edge.To)))
		} else {
			lines = append(lines, fmt.Sprintf("    %s --> %s",
				sanitizeID(edge.From), sanitizeID(edge.To)))
		}
	}
	return lines
}

func sanitizeID(id string) string {
	if id == "" {
		return "X"
	}
	sanitized := unsafeIDRe.ReplaceAllString(id, "_")
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "N" + sanitized
	}
	return sanitized
}

func escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `"`, "'")
	label = strings.ReplaceAll(label, "#", "")
	label = strings.ReplaceAll(label, ";", ",")
	return label
}
