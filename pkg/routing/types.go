package routing

// Complexity classifies a task for model selection.
type Complexity string

const (
	// ComplexitySimple covers mechanical edits: typo fixes, renames, formatting.
	ComplexitySimple Complexity = "simple"

	// ComplexityMedium covers routine implementation and debugging work.
	ComplexityMedium Complexity = "medium"

	// ComplexityComplex covers design, security, and research tasks.
	ComplexityComplex Complexity = "complex"

	// ComplexityLocalFirst covers boilerplate best handled by a local model.
	ComplexityLocalFirst Complexity = "local_first"
)

// Objective selects the optimization goal for model selection.
type Objective string

const (
	// ObjectiveCost picks the cheapest candidate.
	ObjectiveCost Objective = "cost"

	// ObjectiveQuality picks the most capable (costliest) candidate.
	ObjectiveQuality Objective = "quality"

	// ObjectiveDefault picks the first candidate in declared order.
	ObjectiveDefault Objective = ""
)

// Tier binds a complexity level to its candidate models and trigger keywords.
type Tier struct {
	// Complexity is the tier's classification level.
	Complexity Complexity

	// Models are the candidate model names in preference order.
	Models []string

	// Keywords classify a prompt into this tier on substring match.
	Keywords []string
}

// ModelInfo describes a model's pricing and owning provider.
type ModelInfo struct {
	// CostPer1K is the model's cost in USD per 1000 tokens.
	CostPer1K float64

	// Provider is the provider name serving this model.
	Provider string
}

// FallbackProvider is the provider label for models missing from the table.
const FallbackProvider = "anthropic"

// FallbackModel is returned when nothing at all is available.
const FallbackModel = "claude-3-5-sonnet-20241022"

// DefaultTiers returns the built-in routing table. Order matters: keyword
// classification checks tiers in this order and stops at the first match.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Complexity: ComplexitySimple,
			Models:     []string{"ollama:codellama", "gpt-3.5-turbo"},
			Keywords:   []string{"fix", "typo", "format", "rename", "simple", "comment"},
		},
		{
			Complexity: ComplexityMedium,
			Models:     []string{"gpt-3.5-turbo", "claude-instant"},
			Keywords:   []string{"implement", "function", "add", "feature", "debug", "test"},
		},
		{
			Complexity: ComplexityComplex,
			Models:     []string{"claude-3-5-sonnet-20241022", "gpt-4"},
			Keywords:   []string{"design", "architect", "security", "review", "optimize", "research"},
		},
		{
			Complexity: ComplexityLocalFirst,
			Models:     []string{"ollama:codellama"},
			Keywords:   []string{"boilerplate", "template"},
		},
	}
}

// DefaultModels returns the built-in model capability table.
func DefaultModels() map[string]ModelInfo {
	return map[string]ModelInfo{
		"claude-3-5-sonnet-20241022": {CostPer1K: 0.03, Provider: "anthropic"},
		"gpt-4":                      {CostPer1K: 0.03, Provider: "openai"},
		"gpt-3.5-turbo":              {CostPer1K: 0.001, Provider: "openai"},
		"claude-instant":             {CostPer1K: 0.008, Provider: "anthropic"},
		"ollama:codellama":           {CostPer1K: 0, Provider: "ollama"},
	}
}

// Selection is the outcome of a routing decision.
type Selection struct {
	// Model is the chosen model name.
	Model string

	// Provider is the provider serving the chosen model.
	Provider string

	// Complexity is the classification that drove the choice.
	Complexity Complexity

	// Forced is true when the caller pinned the model explicitly.
	Forced bool

	// Fallback is true when no candidate of the classified tier was
	// available and a model from outside the tier was substituted.
	Fallback bool

	// EstimatedSavings is the projected USD saved versus the costliest
	// available candidate for this request.
	EstimatedSavings float64
}
