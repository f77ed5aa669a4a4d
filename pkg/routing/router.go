// Package routing selects a model and provider for each task based on
// complexity classification, model availability, and an optimization
// objective, tracking the cost savings of routing away from premium models.
package routing

import (
	"log/slog"
)

// AvailabilityProbe reports the models currently usable, typically derived
// from configured provider credentials.
type AvailabilityProbe func() []string

// Request describes one routing decision.
type Request struct {
	// Prompt is the task text used for keyword classification.
	Prompt string

	// Role is the agent role issuing the task (may be empty).
	Role string

	// ContextSize is the attached context length in characters.
	ContextSize int

	// ForceModel pins the selection to this model, bypassing routing.
	ForceModel string

	// Objective selects the optimization goal. Empty means declared order.
	Objective Objective
}

// Router picks models from a static tier table filtered by availability.
type Router struct {
	tiers   []Tier
	models  map[string]ModelInfo
	probe   AvailabilityProbe
	stats   *Stats
	metrics *Metrics
	logger  *slog.Logger
}

// NewRouter creates a router over the built-in tables.
// A nil probe means every model in the table is considered available.
// A nil metrics disables instrumentation.
func NewRouter(probe AvailabilityProbe, metrics *Metrics) *Router {
	r := &Router{
		tiers:   DefaultTiers(),
		models:  DefaultModels(),
		probe:   probe,
		stats:   NewStats(),
		metrics: metrics,
		logger:  slog.Default().With("component", "routing"),
	}
	if r.probe == nil {
		r.probe = r.allModels
	}
	return r
}

// ProviderProbe builds an AvailabilityProbe from a provider lookup, marking
// each model in the table available when its provider is configured.
func ProviderProbe(hasProvider func(name string) bool) AvailabilityProbe {
	return func() []string {
		var available []string
		for model, info := range DefaultModels() {
			if hasProvider(info.Provider) {
				available = append(available, model)
			}
		}
		return available
	}
}

// Stats returns the router's usage and savings tracker.
func (r *Router) Stats() *Stats {
	return r.stats
}

// Select picks a model and provider for the request.
//
// A forced model is returned verbatim without availability checks; the
// caller asked for it by name and gets it, with the fallback provider label
// when the model is unknown. Otherwise the request is classified, the
// tier's candidates are filtered by availability, and the objective picks
// among the survivors. An empty intersection falls back to the first
// available model of any tier, then to the hardcoded default.
func (r *Router) Select(req Request) Selection {
	if req.ForceModel != "" {
		r.logger.Info("using forced model", "model", req.ForceModel)
		sel := Selection{
			Model:    req.ForceModel,
			Provider: r.providerFor(req.ForceModel),
			Forced:   true,
		}
		r.record(sel)
		return sel
	}

	complexity := r.Classify(req.Prompt, req.Role, req.ContextSize)
	available := make(map[string]bool)
	for _, model := range r.probe() {
		available[model] = true
	}

	var candidates []string
	for _, tier := range r.tiers {
		if tier.Complexity != complexity {
			continue
		}
		for _, model := range tier.Models {
			if available[model] {
				candidates = append(candidates, model)
			}
		}
		break
	}

	fallback := false
	if len(candidates) == 0 {
		r.logger.Warn("no models available for task complexity, using fallback",
			"complexity", complexity,
		)
		fallback = true
		if first := r.firstAvailable(available); first != "" {
			candidates = []string{first}
		} else {
			candidates = []string{FallbackModel}
		}
	}

	selected := r.pick(candidates, req.Objective)

	sel := Selection{
		Model:            selected,
		Provider:         r.providerFor(selected),
		Complexity:       complexity,
		Fallback:         fallback,
		EstimatedSavings: r.savings(candidates, selected, req.ContextSize),
	}

	r.record(sel)
	r.logger.Info("selected model",
		"model", sel.Model,
		"provider", sel.Provider,
		"complexity", complexity,
	)
	return sel
}

// pick applies the objective to the non-empty candidate list.
// Comparisons are strict so ties keep the declared preference order.
func (r *Router) pick(candidates []string, objective Objective) string {
	selected := candidates[0]
	switch objective {
	case ObjectiveCost:
		for _, model := range candidates[1:] {
			if r.costOf(model, 0.1) < r.costOf(selected, 0.1) {
				selected = model
			}
		}
	case ObjectiveQuality:
		for _, model := range candidates[1:] {
			if r.costOf(model, 0) > r.costOf(selected, 0) {
				selected = model
			}
		}
	}
	return selected
}

// savings estimates the USD saved versus the costliest available candidate.
func (r *Router) savings(candidates []string, selected string, contextSize int) float64 {
	if len(candidates) < 2 {
		return 0
	}

	costliest := candidates[0]
	for _, model := range candidates[1:] {
		if r.costOf(model, 0) > r.costOf(costliest, 0) {
			costliest = model
		}
	}
	if costliest == selected {
		return 0
	}

	estimatedTokens := contextSize + 1000
	if estimatedTokens > 4000 {
		estimatedTokens = 4000
	}
	saved := (r.costOf(costliest, 0) - r.costOf(selected, 0)) * float64(estimatedTokens) / 1000.0
	if saved < 0 {
		return 0
	}
	return saved
}

// record updates usage stats and metrics for a completed selection.
func (r *Router) record(sel Selection) {
	r.stats.RecordSelection(sel.Model, sel.EstimatedSavings)
	if r.metrics != nil {
		r.metrics.RecordSelection(sel)
	}
}

// providerFor returns the owning provider, or the fallback label for
// models missing from the capability table.
func (r *Router) providerFor(model string) string {
	if info, ok := r.models[model]; ok {
		return info.Provider
	}
	return FallbackProvider
}

// costOf returns the model's per-1K cost, or def when unknown.
func (r *Router) costOf(model string, def float64) float64 {
	if info, ok := r.models[model]; ok {
		return info.CostPer1K
	}
	return def
}

// firstAvailable returns the first available model in table order, so the
// fallback choice is deterministic.
func (r *Router) firstAvailable(available map[string]bool) string {
	for _, tier := range r.tiers {
		for _, model := range tier.Models {
			if available[model] {
				return model
			}
		}
	}
	return ""
}

// allModels lists every model in the capability table, for the nil probe.
func (r *Router) allModels() []string {
	models := make([]string, 0, len(r.models))
	for _, tier := range r.tiers {
		for _, model := range tier.Models {
			models = append(models, model)
		}
	}
	return models
}
