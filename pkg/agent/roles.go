// Package agent defines the closed set of agent roles, their output
// constraints, conversation history persistence, and the bounded
// collaboration loop between paired roles.
package agent

import "sort"

// Role constrains how a task is prompted and what output is allowed.
type Role struct {
	// Name is the role identifier.
	Name string

	// Description is a one-line summary shown in role listings.
	Description string

	// PromptPrefix is prepended to every prompt issued under this role.
	PromptPrefix string

	// PreferredProvider is the provider this role defaults to.
	PreferredProvider string

	// PreferredModel is the model this role defaults to.
	PreferredModel string

	// OutputFilter is applied to the model's reply before it is returned.
	OutputFilter Filter
}

// roles is the closed registry. Roles outside this set are rejected.
var roles = map[string]Role{
	"clarifier": {
		Name:        "clarifier",
		Description: "Clarifies user intent before any work begins",
		PromptPrefix: "You are a requirements clarifier. Your ONLY job is to understand what " +
			"the user wants. Ask clarifying questions, be specific, and summarize your " +
			"understanding. Do NOT provide solutions or implementations.",
		PreferredProvider: "anthropic",
		PreferredModel:    "claude-3-5-sonnet-20241022",
		OutputFilter:      FilterNone,
	},
	"architect": {
		Name:        "architect",
		Description: "Designs system architecture and high-level structure",
		PromptPrefix: "You are a senior software architect. Focus ONLY on system design, " +
			"patterns, and structure. You must NOT write any code. Output architecture " +
			"descriptions, component diagrams as text, API specifications, and data models. " +
			"If asked to implement, refuse and only provide design.",
		PreferredProvider: "anthropic",
		PreferredModel:    "claude-3-5-sonnet-20241022",
		OutputFilter:      FilterNoCode,
	},
	"coder": {
		Name:        "coder",
		Description: "Writes actual implementation code",
		PromptPrefix: "You are an expert programmer. Write ONLY the code that was requested. " +
			"Do NOT add extra features, write tests unless asked, or critique the design. " +
			"Just implement exactly what was asked.",
		PreferredProvider: "openai",
		PreferredModel:    "gpt-4",
		OutputFilter:      FilterCodeOnly,
	},
	"reviewer": {
		Name:        "reviewer",
		Description: "Reviews code for bugs, security, and best practices",
		PromptPrefix: "You are a senior code reviewer. ONLY review and critique code. Do NOT " +
			"write fixes or corrected code. Identify issues, explain problems, and describe " +
			"what should be fixed.",
		PreferredProvider: "anthropic",
		PreferredModel:    "claude-3-5-sonnet-20241022",
		OutputFilter:      FilterNoCode,
	},
	"tester": {
		Name:        "tester",
		Description: "Writes test cases and finds edge cases",
		PromptPrefix: "You are a QA engineer. Write ONLY test code. Do NOT modify the " +
			"implementation. Only write tests.",
		PreferredProvider: "openai",
		PreferredModel:    "gpt-4",
		OutputFilter:      FilterTestsOnly,
	},
	"documenter": {
		Name:        "documenter",
		Description: "Writes clear documentation and comments",
		PromptPrefix: "You are a technical writer. Write ONLY documentation. Do NOT write or " +
			"modify code. Only create documentation, comments, and explanations.",
		PreferredProvider: "anthropic",
		PreferredModel:    "claude-3-5-sonnet-20241022",
		OutputFilter:      FilterNoCode,
	},
	"optimizer": {
		Name:        "optimizer",
		Description: "Optimizes code for performance",
		PromptPrefix: "You are a performance engineer. ONLY optimize existing code. Do NOT add " +
			"features or change functionality. Only improve performance.",
		PreferredProvider: "ollama",
		PreferredModel:    "ollama:codellama",
		OutputFilter:      FilterCodeOnly,
	},
	"researcher": {
		Name:        "researcher",
		Description: "Researches documentation, dependencies, and best practices",
		PromptPrefix: "You are a technical researcher. Find and summarize documentation, API " +
			"references, package alternatives, code examples, and security advisories. " +
			"Provide clear, actionable summaries. Do NOT implement code.",
		PreferredProvider: "anthropic",
		PreferredModel:    "claude-3-5-sonnet-20241022",
		OutputFilter:      FilterNone,
	},
}

// GetRole returns the named role from the registry.
func GetRole(name string) (Role, bool) {
	role, ok := roles[name]
	return role, ok
}

// RoleNames returns all registered role names in sorted order.
func RoleNames() []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
