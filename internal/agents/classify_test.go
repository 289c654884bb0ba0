package agents_test

import (
	"testing"

	"github.com/scriven-ai/scriven/internal/agents"
)

func TestClassify(t *testing.T) {
	t.Run("optics paper routes to photon", func(t *testing.T) {
		result := agents.Classify(
			"Adaptive optics correction for free-space optical links",
			"We demonstrate wavefront correction using a deformable mirror. "+
				"The laser beam propagates through atmospheric turbulence and "+
				"scintillation is measured at the receiver aperture.",
		)
		if result.Domain != "optics" {
			t.Errorf("expected optics, got %s", result.Domain)
		}
		if result.AgentName != "photon" {
			t.Errorf("expected photon, got %s", result.AgentName)
		}
		if result.Confidence < 0.7 {
			t.Errorf("expected confident match, got %v", result.Confidence)
		}
		if result.NeedsConfirmation {
			t.Error("expected no confirmation needed")
		}
	})

	t.Run("ml paper routes to neural", func(t *testing.T) {
		result := agents.Classify(
			"Fine-tuning language models with reinforcement learning",
			"We train a transformer with attention on a large dataset. "+
				"Training uses dropout and batch normalization with "+
				"cross-entropy loss and careful learning rate scheduling.",
		)
		if result.Domain != "ai_ml" {
			t.Errorf("expected ai_ml, got %s", result.Domain)
		}
	})

	t.Run("no keywords yields unknown", func(t *testing.T) {
		result := agents.Classify(
			"A study of medieval pottery",
			"We catalogue ceramic fragments from archaeological digs.",
		)
		if result.Domain != "unknown" {
			t.Errorf("expected unknown, got %s", result.Domain)
		}
		if !result.NeedsConfirmation {
			t.Error("expected confirmation required")
		}
		if result.Confidence != 0 {
			t.Errorf("expected zero confidence, got %v", result.Confidence)
		}
	})

	t.Run("thin evidence caps confidence", func(t *testing.T) {
		result := agents.Classify("", "The sample was examined with a lens.")
		if result.Confidence > 0.4 {
			t.Errorf("single match should cap at 0.4, got %v", result.Confidence)
		}
		if !result.NeedsConfirmation {
			t.Error("expected confirmation required for thin evidence")
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		title := "CMOS amplifier design"
		abstract := "A low-noise amplifier in a 28nm process node with " +
			"measured gain, bandwidth, and power consumption."

		first := agents.Classify(title, abstract)
		for i := 0; i < 10; i++ {
			again := agents.Classify(title, abstract)
			if again.Domain != first.Domain || again.Confidence != first.Confidence {
				t.Fatalf("classification not deterministic: %+v vs %+v", first, again)
			}
		}
	})
}

func TestProfiles(t *testing.T) {
	t.Run("all profiles carry phase prompts", func(t *testing.T) {
		for _, agent := range agents.All() {
			for _, phase := range []string{"screening", "visual", "recipe", "deep_dive"} {
				if agent.PromptFor(phase) == "" {
					t.Errorf("agent %s missing prompt for %s", agent.Name, phase)
				}
			}
			if len(agent.RecipeParameters) == 0 {
				t.Errorf("agent %s has no recipe parameters", agent.Name)
			}
		}
	})

	t.Run("lookup by name and domain agree", func(t *testing.T) {
		byName, err := agents.ByName("cell")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		byDomain, err := agents.ByDomain("bio")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if byName != byDomain {
			t.Error("expected same profile from both lookups")
		}
	})

	t.Run("unknown name errors", func(t *testing.T) {
		if _, err := agents.ByName("nope"); err == nil {
			t.Error("expected error for unknown agent")
		}
	})
}
