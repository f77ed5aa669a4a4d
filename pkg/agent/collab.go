package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Severity grades the issues an agent raised in a collaboration round.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// collaborationPairs maps each role to the role that answers it.
var collaborationPairs = map[string]string{
	"reviewer":   "coder",
	"coder":      "reviewer",
	"tester":     "coder",
	"architect":  "coder",
	"documenter": "coder",
}

// resolutionTerms end the collaboration when an agent's reply contains one.
var resolutionTerms = []string{
	"lgtm", "looks good", "resolved", "fixed", "no issues", "approved",
}

// ChatFunc produces a reply for a role-prefixed prompt. The collaboration
// loop is transport-agnostic; callers wire it to the provider registry.
type ChatFunc func(ctx context.Context, role Role, prompt string) (string, error)

// Round records one agent turn in a collaboration.
type Round struct {
	// Role is the agent that spoke this round.
	Role string

	// Response is the agent's filtered reply.
	Response string

	// Severity is the issue grade assessed from the reply.
	Severity Severity
}

// Result summarizes a finished collaboration.
type Result struct {
	// Rounds holds every turn, in order.
	Rounds []Round

	// Resolved is true when an agent signaled resolution.
	Resolved bool

	// Stopped explains why the loop ended when not resolved.
	Stopped string
}

// Collaboration runs a bounded back-and-forth between paired roles.
type Collaboration struct {
	chat      ChatFunc
	maxRounds int
	logger    *slog.Logger
}

// NewCollaboration creates a collaboration driver. maxRounds <= 0 defaults
// to 5.
func NewCollaboration(chat ChatFunc, maxRounds int) *Collaboration {
	if maxRounds <= 0 {
		maxRounds = 5
	}
	return &Collaboration{
		chat:      chat,
		maxRounds: maxRounds,
		logger:    slog.Default().With("component", "agent.collab"),
	}
}

// Run alternates between the initial role and its paired role until an
// agent signals resolution, severity drops to low after the early rounds,
// the round budget is spent, or the pairing has no counterpart.
//
// The reviewer's findings become the coder's task; the coder's fixes become
// the reviewer's input, with any code blocks in the reply replacing the
// working code.
func (c *Collaboration) Run(ctx context.Context, initialRole, question, code string) (*Result, error) {
	role, ok := GetRole(initialRole)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", initialRole)
	}

	result := &Result{}
	currentRole := role
	currentQuestion := question

	for round := 1; round <= c.maxRounds; round++ {
		c.logger.Info("collaboration round",
			"round", round,
			"max_rounds", c.maxRounds,
			"role", currentRole.Name,
		)

		prompt := buildPrompt(currentRole, currentQuestion, code)
		raw, err := c.chat(ctx, currentRole, prompt)
		if err != nil {
			return result, fmt.Errorf("round %d (%s): %w", round, currentRole.Name, err)
		}
		response := currentRole.OutputFilter.Apply(raw)

		severity := AssessSeverity(response)
		result.Rounds = append(result.Rounds, Round{
			Role:     currentRole.Name,
			Response: response,
			Severity: severity,
		})

		if containsResolution(response) {
			result.Resolved = true
			return result, nil
		}

		if severity == SeverityLow && round > 2 {
			result.Stopped = "diminishing returns"
			return result, nil
		}

		nextName, ok := collaborationPairs[currentRole.Name]
		if !ok {
			result.Stopped = fmt.Sprintf("no collaboration pair for %s", currentRole.Name)
			return result, nil
		}
		nextRole, _ := GetRole(nextName)

		switch currentRole.Name {
		case "reviewer":
			currentQuestion = "Fix these issues found in review:\n" + response
		case "coder":
			currentQuestion = "Review these fixes:\n" + response
			if blocks := ExtractCodeBlocks(raw); len(blocks) > 0 {
				code = strings.Join(blocks, "\n\n")
			} else if strings.TrimSpace(response) != "" {
				code = response
			}
		default:
			currentQuestion = response
		}
		currentRole = nextRole
	}

	result.Stopped = "max rounds reached"
	return result, nil
}

// AssessSeverity grades a reply by its strongest issue keyword.
func AssessSeverity(response string) Severity {
	lower := strings.ToLower(response)
	switch {
	case strings.Contains(lower, "critical") || strings.Contains(lower, "vulnerability"):
		return SeverityCritical
	case strings.Contains(lower, "error") || strings.Contains(lower, "bug"):
		return SeverityHigh
	case strings.Contains(lower, "warning") || strings.Contains(lower, "improvement"):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func containsResolution(response string) bool {
	lower := strings.ToLower(response)
	for _, term := range resolutionTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// buildPrompt assembles the role prefix, optional working code, and the
// question into one prompt.
func buildPrompt(role Role, question, code string) string {
	var sb strings.Builder
	sb.WriteString(role.PromptPrefix)
	sb.WriteString("\n\n")
	if code != "" {
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", code)
	}
	sb.WriteString(question)
	return sb.String()
}
