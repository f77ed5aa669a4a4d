package routing

import "strings"

// Context size thresholds for size-based classification, in characters.
const (
	complexContextThreshold = 50000
	mediumContextThreshold  = 10000
)

// Classify determines task complexity from the role, prompt keywords, and
// context size, in that precedence order.
//
// Role rules take priority because a role states intent more reliably than
// prompt wording. Reviewer and optimizer tasks escalate to complex only when
// the prompt mentions security; tester and documenter tasks escalate to
// medium only on large contexts.
func (r *Router) Classify(prompt, role string, contextSize int) Complexity {
	promptLower := strings.ToLower(prompt)

	switch role {
	case "architect", "researcher":
		return ComplexityComplex
	case "reviewer", "optimizer":
		if strings.Contains(promptLower, "security") {
			return ComplexityComplex
		}
		return ComplexityMedium
	case "coder":
		return ComplexityMedium
	case "tester", "documenter":
		if contextSize > mediumContextThreshold {
			return ComplexityMedium
		}
		return ComplexitySimple
	}

	for _, tier := range r.tiers {
		for _, keyword := range tier.Keywords {
			if strings.Contains(promptLower, keyword) {
				return tier.Complexity
			}
		}
	}

	if contextSize > complexContextThreshold {
		return ComplexityComplex
	}
	if contextSize > mediumContextThreshold {
		return ComplexityMedium
	}
	return ComplexitySimple
}
