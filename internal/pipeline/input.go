package pipeline

import (
	"fmt"
	"strings"

	"github.com/scriven-ai/scriven/internal/jobs"
)

// Section keys searched per phase, in preference order.
var (
	screeningKeys = []string{"abstract", "conclusion", "conclusions", "summary"}
	recipeKeys    = []string{
		"method", "methods", "experimental", "materials and methods",
		"materials_and_methods", "procedure", "fabrication",
	}
	deepDiveKeys = []string{
		"introduction", "results", "results and discussion",
		"results_and_discussion", "discussion",
	}
)

// BuildInput assembles the phase input text from the pre-split sections.
// When the segmenter found no named sections, positional slices of the full
// text stand in: abstracts live at the front, conclusions at the back, and
// methods near the middle of a typical paper.
func BuildInput(kind jobs.PhaseKind, in *Inputs) string {
	switch kind {
	case jobs.PhaseScreening:
		return screeningInput(in)
	case jobs.PhaseVisual:
		return visualInput(in)
	case jobs.PhaseRecipe:
		return recipeInput(in)
	case jobs.PhaseDeepDive:
		return deepDiveInput(in)
	}
	return ""
}

func screeningInput(in *Inputs) string {
	parts := collectSections(in.Sections, screeningKeys)

	if len(parts) == 0 {
		full := in.Sections["full_text"]
		if full != "" {
			parts = append(parts, "=== Beginning (Abstract area) ===\n"+head(full, 2000))
			if len(full) > 4000 {
				parts = append(parts, "=== End (Conclusion area) ===\n"+tail(full, 2000))
			}
		}
	}

	return strings.Join(parts, "\n\n")
}

func visualInput(in *Inputs) string {
	if len(in.Figures) == 0 {
		return "No figures or tables were extracted from this paper."
	}

	var parts []string
	for _, fig := range in.Figures {
		desc := fmt.Sprintf("Figure: %s (Page %d)", fig.ID, fig.Page)
		if fig.Caption != "" {
			desc += "\nCaption: " + fig.Caption
		}
		parts = append(parts, desc)
	}

	return strings.Join(parts, "\n\n")
}

func recipeInput(in *Inputs) string {
	parts := collectSections(in.Sections, recipeKeys)

	if len(parts) == 0 {
		full := in.Sections["full_text"]
		if full != "" {
			parts = append(parts, "=== Method/Experimental (estimated) ===\n"+middle(full, 6000))
		}
	}

	return strings.Join(parts, "\n\n")
}

func deepDiveInput(in *Inputs) string {
	parts := collectSections(in.Sections, deepDiveKeys)

	if len(parts) == 0 {
		full := in.Sections["full_text"]
		if full != "" {
			parts = append(parts, "=== Introduction (estimated) ===\n"+head(full, 3000))
			if len(full) > 6000 {
				parts = append(parts, "=== Results & Discussion (estimated) ===\n"+full[len(full)/2:])
			}
		}
	}

	return strings.Join(parts, "\n\n")
}

func collectSections(sections map[string]string, keys []string) []string {
	var parts []string
	for _, key := range keys {
		if text := sections[key]; text != "" {
			parts = append(parts, fmt.Sprintf("=== %s ===\n%s", titleCase(key), text))
		}
	}
	return parts
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func middle(s string, n int) string {
	if len(s) <= n {
		return s
	}
	mid := len(s) / 2
	start := mid - n/2
	if start < 0 {
		start = 0
	}
	end := start + n
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
