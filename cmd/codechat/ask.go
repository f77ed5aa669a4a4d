package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codechat-hq/codechat/pkg/agent"
	"codechat-hq/codechat/pkg/providers"
	"codechat-hq/codechat/pkg/routing"
)

var askFlags struct {
	role        string
	model       string
	objective   string
	contextFile string
	noHistory   bool
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question",
	Long: `Ask a one-shot question from the terminal.

The question is quota-checked, routed to a model by complexity, and the
reply is printed to stdout. Recent conversation context is carried between
invocations unless --no-history is set.

Examples:
  # Plain question
  codechat ask "why does this test flake?"

  # With a role and attached file
  codechat ask "review this change" --role reviewer --context diff.patch

  # Prefer the cheapest capable model
  codechat ask "rename the helper" --objective cost

  # Pin a model
  codechat ask "explain the tradeoffs" --model claude-3-5-sonnet-20241022`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askFlags.role, "role", "r", "", "agent role ("+rolesHint()+")")
	askCmd.Flags().StringVarP(&askFlags.model, "model", "m", "", "force a specific model")
	askCmd.Flags().StringVarP(&askFlags.objective, "objective", "o", "", "optimization objective (cost, quality)")
	askCmd.Flags().StringVar(&askFlags.contextFile, "context", "", "file whose content is attached to the question")
	askCmd.Flags().BoolVar(&askFlags.noHistory, "no-history", false, "do not load or save conversation context")
}

func rolesHint() string {
	names := agent.RoleNames()
	hint := ""
	for i, name := range names {
		if i > 0 {
			hint += ", "
		}
		hint += name
	}
	return hint
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	var role agent.Role
	if askFlags.role != "" {
		var ok bool
		role, ok = agent.GetRole(askFlags.role)
		if !ok {
			return fmt.Errorf("unknown role %q (known roles: %s)", askFlags.role, rolesHint())
		}
	}

	var contextContent string
	if askFlags.contextFile != "" {
		data, err := os.ReadFile(askFlags.contextFile)
		if err != nil {
			return fmt.Errorf("failed to read context file: %w", err)
		}
		contextContent = string(data)
	}

	comps, err := newComponents(cfg, false)
	if err != nil {
		return err
	}
	defer comps.close()

	ctx := context.Background()

	// The CLI identity is the local user; all invocations share one quota
	// bucket, matching single-operator use.
	decision := comps.limiter.Check(ctx, "local")
	if !decision.Allowed {
		return fmt.Errorf("%s", decision.Message)
	}

	sel := comps.router.Select(routing.Request{
		Prompt:      question,
		Role:        askFlags.role,
		ContextSize: len(contextContent),
		ForceModel:  askFlags.model,
		Objective:   routing.Objective(askFlags.objective),
	})

	history := agent.NewHistory(cfg.History.Path, cfg.History.MaxMessages)

	var messages []providers.Message
	if askFlags.role != "" {
		messages = append(messages, providers.Message{Role: "system", Content: role.PromptPrefix})
	}
	if !askFlags.noHistory {
		messages = append(messages, history.Load()...)
	}
	content := question
	if contextContent != "" {
		content = contextContent + "\n\n" + question
	}
	messages = append(messages, providers.Message{Role: "user", Content: content})

	fmt.Fprintf(os.Stderr, "[%s via %s] %s\n", sel.Model, sel.Provider, decision.Message)

	resp, err := comps.registry.Chat(ctx, sel.Provider, sel.Model, messages)
	if err != nil {
		return fmt.Errorf("provider call failed: %w", err)
	}

	text := resp.Text
	if askFlags.role != "" {
		text = role.OutputFilter.Apply(text)
	}
	fmt.Println(text)

	cost := askCost(comps, sel.Model, content, resp)
	comps.tracker.Add(ctx, cost)

	if !askFlags.noHistory {
		saved := append(history.Load(),
			providers.Message{Role: "user", Content: question},
			providers.Message{Role: "assistant", Content: text},
		)
		if err := history.Save(saved); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save conversation context: %v\n", err)
		}
	}

	return nil
}

// askCost prices the exchange, estimating token counts when the provider
// did not report usage.
func askCost(c *components, model, prompt string, resp *providers.ChatResponse) float64 {
	promptTokens := resp.Usage.PromptTokens
	completionTokens := resp.Usage.CompletionTokens
	if promptTokens == 0 && completionTokens == 0 {
		promptTokens = c.estimator.EstimateText(prompt, model)
		completionTokens = c.estimator.EstimateText(resp.Text, model)
	}
	return c.calculator.RequestCost(model, promptTokens, completionTokens)
}
