// Package agents defines the domain reviewer profiles that shape each
// analysis phase, and a keyword classifier that routes papers to them.
package agents

import "fmt"

// Agent is a domain reviewer profile. Each profile carries the prompt
// overlays appended to the base phase prompts and the parameter names the
// extraction phase must capture for its domain.
type Agent struct {
	Name             string   `json:"name"`
	Domain           string   `json:"domain"`
	DisplayName      string   `json:"display_name"`
	Description      string   `json:"description"`
	Keywords         []string `json:"-"`
	WeightedKeywords []string `json:"-"`
	RecipeParameters []string `json:"recipe_parameters"`

	ScreeningPrompt string `json:"-"`
	VisualPrompt    string `json:"-"`
	RecipePrompt    string `json:"-"`
	DeepDivePrompt  string `json:"-"`
}

// PromptFor returns the prompt overlay for a phase name. Unknown phases
// return an empty overlay rather than an error: the base prompt still works
// without domain guidance.
func (a *Agent) PromptFor(phase string) string {
	switch phase {
	case "screening":
		return a.ScreeningPrompt
	case "visual":
		return a.VisualPrompt
	case "recipe":
		return a.RecipePrompt
	case "deep_dive", "deepdive":
		return a.DeepDivePrompt
	}
	return ""
}

// All returns every registered profile in routing priority order.
func All() []*Agent {
	return []*Agent{photon, cell, neural, circuit}
}

// ByName returns the profile with the given agent name.
func ByName(name string) (*Agent, error) {
	for _, agent := range All() {
		if agent.Name == name {
			return agent, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
}

// ByDomain returns the profile handling the given domain key.
func ByDomain(domain string) (*Agent, error) {
	for _, agent := range All() {
		if agent.Domain == domain {
			return agent, nil
		}
	}
	return nil, fmt.Errorf("%w: domain %s", ErrAgentNotFound, domain)
}
