package agents

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	// confidenceThreshold is the minimum score to skip user confirmation.
	confidenceThreshold = 0.7
	// ambiguityGap is the minimum lead the best domain needs over the
	// runner-up before the match counts as unambiguous.
	ambiguityGap = 0.15
)

// Classification is the result of routing a paper to a domain.
type Classification struct {
	Domain            string             `json:"domain"`
	AgentName         string             `json:"agent_name"`
	Confidence        float64            `json:"confidence"`
	Method            string             `json:"method"`
	NeedsConfirmation bool               `json:"needs_confirmation"`
	Matches           []string           `json:"keyword_matches"`
	Scores            map[string]float64 `json:"all_scores"`
}

type compiledProfile struct {
	agent    *Agent
	patterns []*regexp.Regexp
	weighted []*regexp.Regexp
}

var compiled []compiledProfile

func init() {
	for _, agent := range All() {
		profile := compiledProfile{agent: agent}
		for _, kw := range agent.Keywords {
			profile.patterns = append(profile.patterns, keywordPattern(kw))
		}
		for _, kw := range agent.WeightedKeywords {
			profile.weighted = append(profile.weighted, keywordPattern(kw))
		}
		compiled = append(compiled, profile)
	}
}

func keywordPattern(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
}

// Classify scores each domain by keyword matches in the title and abstract.
// Title matches count triple, multi-word domain terms count double, and
// scores are normalized against the best domain. The function is pure:
// identical inputs always produce identical results.
func Classify(title, abstract string) Classification {
	combined := title + "\n" + abstract
	titleLower := strings.ToLower(title)

	scores := make(map[string]float64, len(compiled))
	matches := make(map[string][]string, len(compiled))

	for _, profile := range compiled {
		var score float64
		var matched []string

		for i, pattern := range profile.patterns {
			bodyHits := len(pattern.FindAllString(combined, -1))
			titleHits := len(pattern.FindAllString(titleLower, -1))
			if bodyHits > 0 {
				score += float64(bodyHits)
				matched = append(matched, profile.agent.Keywords[i])
			}
			score += float64(titleHits) * 2
		}
		for i, pattern := range profile.weighted {
			bodyHits := len(pattern.FindAllString(combined, -1))
			titleHits := len(pattern.FindAllString(titleLower, -1))
			if bodyHits > 0 {
				score += float64(bodyHits) * 2
				matched = append(matched, profile.agent.WeightedKeywords[i])
			}
			score += float64(titleHits) * 4
		}

		scores[profile.agent.Domain] = score
		matches[profile.agent.Domain] = matched
	}

	var maxScore float64
	for _, score := range scores {
		maxScore = math.Max(maxScore, score)
	}

	if maxScore == 0 {
		return Classification{
			Domain:            "unknown",
			Method:            "keyword",
			NeedsConfirmation: true,
			Scores:            normalize(scores, 1),
		}
	}

	normalized := normalize(scores, maxScore)

	best := bestDomain(normalized)
	confidence := normalized[best]

	// Thin evidence caps confidence regardless of normalization.
	switch len(matches[best]) {
	case 0, 1:
		confidence = math.Min(confidence, 0.4)
	case 2:
		confidence = math.Min(confidence, 0.6)
	}

	agent, err := ByDomain(best)
	if err != nil {
		return Classification{
			Domain:            "unknown",
			Method:            "keyword",
			NeedsConfirmation: true,
			Scores:            normalized,
		}
	}

	needsConfirmation := confidence < confidenceThreshold || ambiguous(normalized)

	return Classification{
		Domain:            best,
		AgentName:         agent.Name,
		Confidence:        round3(confidence),
		Method:            "keyword",
		NeedsConfirmation: needsConfirmation,
		Matches:           matches[best],
		Scores:            normalized,
	}
}

func normalize(scores map[string]float64, max float64) map[string]float64 {
	normalized := make(map[string]float64, len(scores))
	for domain, score := range scores {
		normalized[domain] = round3(score / max)
	}
	return normalized
}

// bestDomain breaks score ties by domain name so classification stays
// deterministic across map iteration orders.
func bestDomain(scores map[string]float64) string {
	domains := make([]string, 0, len(scores))
	for domain := range scores {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	best := domains[0]
	for _, domain := range domains[1:] {
		if scores[domain] > scores[best] {
			best = domain
		}
	}
	return best
}

func ambiguous(scores map[string]float64) bool {
	values := make([]float64, 0, len(scores))
	for _, score := range scores {
		values = append(values, score)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	return len(values) >= 2 && values[0]-values[1] < ambiguityGap
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
