package routing

import (
	"math"
	"testing"
)

func allAvailable() []string {
	return []string{
		"ollama:codellama", "gpt-3.5-turbo", "claude-instant",
		"claude-3-5-sonnet-20241022", "gpt-4",
	}
}

// TestRouter_Classify covers the precedence: role, keywords, context size.
func TestRouter_Classify(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	tests := []struct {
		name        string
		prompt      string
		role        string
		contextSize int
		want        Complexity
	}{
		{"architect role", "do anything", "architect", 0, ComplexityComplex},
		{"researcher role", "summarize this", "researcher", 0, ComplexityComplex},
		{"reviewer with security", "check SECURITY of this handler", "reviewer", 0, ComplexityComplex},
		{"reviewer without security", "check this handler", "reviewer", 0, ComplexityMedium},
		{"optimizer with security", "security audit the loop", "optimizer", 0, ComplexityComplex},
		{"coder role", "fix typo", "coder", 0, ComplexityMedium},
		{"tester small context", "write tests", "tester", 100, ComplexitySimple},
		{"tester large context", "write tests", "tester", 20000, ComplexityMedium},
		{"documenter small context", "document this", "documenter", 0, ComplexitySimple},
		{"simple keyword", "fix the typo in README", "", 0, ComplexitySimple},
		{"medium keyword", "implement a parser", "", 0, ComplexityMedium},
		{"complex keyword", "design the storage layer", "", 0, ComplexityComplex},
		{"local first keyword", "generate boilerplate", "", 0, ComplexityLocalFirst},
		{"keyword beats context size", "quick rename", "", 60000, ComplexitySimple},
		{"huge context", "hello", "", 60000, ComplexityComplex},
		{"medium context", "hello", "", 20000, ComplexityMedium},
		{"default", "hello", "", 0, ComplexitySimple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Classify(tt.prompt, tt.role, tt.contextSize)
			if got != tt.want {
				t.Errorf("Classify(%q, %q, %d) = %s, want %s",
					tt.prompt, tt.role, tt.contextSize, got, tt.want)
			}
		})
	}
}

// TestRouter_Select_CostObjective picks the cheapest candidate.
func TestRouter_Select_CostObjective(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	sel := router.Select(Request{Prompt: "fix the typo", Objective: ObjectiveCost})
	if sel.Model != "ollama:codellama" {
		t.Errorf("Expected ollama:codellama, got %s", sel.Model)
	}
	if sel.Provider != "ollama" {
		t.Errorf("Expected provider ollama, got %s", sel.Provider)
	}
	if sel.Complexity != ComplexitySimple {
		t.Errorf("Expected simple complexity, got %s", sel.Complexity)
	}
}

// TestRouter_Select_QualityObjective picks the costliest candidate.
func TestRouter_Select_QualityObjective(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	sel := router.Select(Request{Prompt: "design a cache", Objective: ObjectiveQuality})
	// Both complex candidates cost 0.03; strict comparison keeps declared order.
	if sel.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("Expected claude-3-5-sonnet-20241022 on tie, got %s", sel.Model)
	}
}

// TestRouter_Select_DefaultObjective keeps declared candidate order.
func TestRouter_Select_DefaultObjective(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	sel := router.Select(Request{Prompt: "implement a function"})
	if sel.Model != "gpt-3.5-turbo" {
		t.Errorf("Expected gpt-3.5-turbo, got %s", sel.Model)
	}
}

// TestRouter_Select_AvailabilityFilter skips unavailable candidates.
func TestRouter_Select_AvailabilityFilter(t *testing.T) {
	probe := func() []string { return []string{"claude-instant"} }
	router := NewRouter(probe, nil)

	sel := router.Select(Request{Prompt: "implement a function", Objective: ObjectiveCost})
	if sel.Model != "claude-instant" {
		t.Errorf("Expected claude-instant, got %s", sel.Model)
	}
	if sel.Fallback {
		t.Error("Expected in-tier selection, not a fallback")
	}
}

// TestRouter_Select_FallbackOutsideTier substitutes an available model when
// the tier's candidates are all unavailable.
func TestRouter_Select_FallbackOutsideTier(t *testing.T) {
	probe := func() []string { return []string{"gpt-4"} }
	router := NewRouter(probe, nil)

	sel := router.Select(Request{Prompt: "fix the typo"})
	if sel.Model != "gpt-4" {
		t.Errorf("Expected fallback to gpt-4, got %s", sel.Model)
	}
	if !sel.Fallback {
		t.Error("Expected Fallback to be set")
	}
}

// TestRouter_Select_NothingAvailable uses the hardcoded default.
func TestRouter_Select_NothingAvailable(t *testing.T) {
	probe := func() []string { return nil }
	router := NewRouter(probe, nil)

	sel := router.Select(Request{Prompt: "implement a function"})
	if sel.Model != FallbackModel {
		t.Errorf("Expected %s, got %s", FallbackModel, sel.Model)
	}
}

// TestRouter_Select_ForcedModel bypasses classification and availability.
func TestRouter_Select_ForcedModel(t *testing.T) {
	probe := func() []string { return nil }
	router := NewRouter(probe, nil)

	sel := router.Select(Request{Prompt: "anything", ForceModel: "gpt-4"})
	if sel.Model != "gpt-4" || sel.Provider != "openai" {
		t.Errorf("Expected gpt-4/openai, got %s/%s", sel.Model, sel.Provider)
	}
	if !sel.Forced {
		t.Error("Expected Forced to be set")
	}
}

// TestRouter_Select_ForcedUnknownModel uses the fallback provider label.
func TestRouter_Select_ForcedUnknownModel(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	sel := router.Select(Request{ForceModel: "experimental-model"})
	if sel.Model != "experimental-model" {
		t.Errorf("Expected forced model verbatim, got %s", sel.Model)
	}
	if sel.Provider != FallbackProvider {
		t.Errorf("Expected fallback provider %s, got %s", FallbackProvider, sel.Provider)
	}
}

// TestRouter_Select_Savings estimates savings against the costliest
// available candidate with capped token projection.
func TestRouter_Select_Savings(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	// Simple tier candidates: ollama:codellama (0) and gpt-3.5-turbo (0.001).
	// Cost objective picks ollama; savings vs gpt-3.5-turbo over
	// min(500+1000, 4000) = 1500 tokens = 0.001 * 1.5 = 0.0015.
	sel := router.Select(Request{Prompt: "fix the typo", ContextSize: 500, Objective: ObjectiveCost})
	if math.Abs(sel.EstimatedSavings-0.0015) > 1e-9 {
		t.Errorf("Expected savings 0.0015, got %v", sel.EstimatedSavings)
	}

	// Large contexts are capped at 4000 estimated tokens.
	sel = router.Select(Request{Prompt: "fix the typo", ContextSize: 100000, Objective: ObjectiveCost})
	if math.Abs(sel.EstimatedSavings-0.004) > 1e-9 {
		t.Errorf("Expected capped savings 0.004, got %v", sel.EstimatedSavings)
	}
}

// TestRouter_Stats accumulates usage counts and savings.
func TestRouter_Stats(t *testing.T) {
	router := NewRouter(allAvailable, nil)

	router.Select(Request{Prompt: "fix the typo", Objective: ObjectiveCost})
	router.Select(Request{Prompt: "fix the typo", Objective: ObjectiveCost})
	router.Select(Request{Prompt: "design a cache", Objective: ObjectiveQuality})

	snap := router.Stats().Snapshot()
	if snap.TotalSelections != 3 {
		t.Errorf("Expected 3 selections, got %d", snap.TotalSelections)
	}
	if snap.ModelUsage["ollama:codellama"] != 2 {
		t.Errorf("Expected 2 uses of ollama:codellama, got %d", snap.ModelUsage["ollama:codellama"])
	}
	if snap.TotalSaved <= 0 {
		t.Errorf("Expected positive accumulated savings, got %v", snap.TotalSaved)
	}
}

// TestProviderProbe derives model availability from configured providers.
func TestProviderProbe(t *testing.T) {
	probe := ProviderProbe(func(name string) bool { return name == "ollama" })

	available := probe()
	if len(available) != 1 || available[0] != "ollama:codellama" {
		t.Errorf("Expected only the local model, got %v", available)
	}

	all := ProviderProbe(func(string) bool { return true })()
	if len(all) != len(DefaultModels()) {
		t.Errorf("Expected every model available, got %v", all)
	}
}
