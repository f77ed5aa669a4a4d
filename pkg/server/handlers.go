package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"codechat-hq/codechat/pkg/agent"
	"codechat-hq/codechat/pkg/providers"
	"codechat-hq/codechat/pkg/routing"
)

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	// Prompt is the user's question or task.
	Prompt string `json:"prompt"`

	// Role selects an agent role; empty means no role framing.
	Role string `json:"role,omitempty"`

	// Context is file or project content supplied alongside the prompt.
	Context string `json:"context_file,omitempty"`

	// Model forces a specific model, bypassing routing.
	Model string `json:"model,omitempty"`

	// Objective steers model selection: "cost" or "quality".
	Objective string `json:"objective,omitempty"`
}

// ChatResponse is the body returned by POST /v1/chat.
type ChatResponse struct {
	// Response is the assistant's reply.
	Response string `json:"response"`

	// Model is the model that served the request.
	Model string `json:"model"`

	// Provider is the provider that served the request.
	Provider string `json:"provider"`

	// Message is the quota evaluation message for this request.
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// handleChat implements POST /v1/chat: quota check, route, provider call,
// cost accounting.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}
	if req.Role != "" {
		if _, ok := agent.GetRole(req.Role); !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown role: " + req.Role})
			return
		}
	}

	ctx := r.Context()
	identity := GetClientIP(ctx)

	decision := s.limiter.Check(ctx, identity)
	if !decision.Allowed {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: decision.Message})
		return
	}

	sel := s.router.Select(routing.Request{
		Prompt:      req.Prompt,
		Role:        req.Role,
		ContextSize: len(req.Context),
		ForceModel:  req.Model,
		Objective:   routing.Objective(req.Objective),
	})

	messages := buildMessages(req)

	resp, err := s.registry.Chat(ctx, sel.Provider, sel.Model, messages)
	if err != nil {
		status, msg := providerErrorStatus(err)
		s.logger.Error("provider call failed",
			"request_id", GetRequestID(ctx),
			"provider", sel.Provider,
			"model", sel.Model,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.RecordChat(sel.Provider, sel.Model, "error", 0, 0)
		}
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	text := resp.Text
	if req.Role != "" {
		role, _ := agent.GetRole(req.Role)
		text = role.OutputFilter.Apply(text)
	}

	cost := s.requestCost(sel.Model, req, resp)
	s.tracker.Add(ctx, cost)
	if s.metrics != nil {
		s.metrics.RecordChat(sel.Provider, sel.Model, "ok", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: text,
		Model:    sel.Model,
		Provider: sel.Provider,
		Message:  decision.Message,
	})
}

// requestCost prices a completed request, estimating token counts when the
// provider did not report usage.
func (s *Server) requestCost(model string, req ChatRequest, resp *providers.ChatResponse) float64 {
	prompt := resp.Usage.PromptTokens
	completion := resp.Usage.CompletionTokens
	if prompt == 0 && completion == 0 {
		prompt = s.estimator.EstimateText(req.Prompt+req.Context, model)
		completion = s.estimator.EstimateText(resp.Text, model)
	}
	return s.calculator.RequestCost(model, prompt, completion)
}

func buildMessages(req ChatRequest) []providers.Message {
	var messages []providers.Message
	if req.Role != "" {
		if role, ok := agent.GetRole(req.Role); ok {
			messages = append(messages, providers.Message{Role: "system", Content: role.PromptPrefix})
		}
	}
	content := req.Prompt
	if req.Context != "" {
		content = req.Context + "\n\n" + req.Prompt
	}
	messages = append(messages, providers.Message{Role: "user", Content: content})
	return messages
}

// providerErrorStatus maps provider errors to HTTP responses without leaking
// upstream details.
func providerErrorStatus(err error) (int, string) {
	var rateErr *providers.RateLimitError
	var authErr *providers.AuthError
	var timeoutErr *providers.TimeoutError
	var cfgErr *providers.ConfigurationError
	switch {
	case errors.As(err, &rateErr):
		return http.StatusTooManyRequests, "provider rate limit exceeded"
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "provider authentication failed"
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout, "provider request timed out"
	case errors.As(err, &cfgErr):
		return http.StatusBadGateway, "provider not configured"
	default:
		return http.StatusBadGateway, "provider request failed"
	}
}

// handleStatus implements GET /v1/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.tracker.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "status unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleAdminReset implements POST /v1/admin/reset, gated by a constant-time
// admin token comparison.
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin endpoint disabled"})
		return
	}
	token := r.Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	if err := s.tracker.ResetDaily(r.Context()); err != nil {
		s.logger.Error("daily reset failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "reset failed"})
		return
	}

	slog.InfoContext(r.Context(), "daily counters reset",
		"request_id", GetRequestID(r.Context()),
		"client_ip", GetClientIP(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleHealthz implements GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
