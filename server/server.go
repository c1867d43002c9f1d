// Package server exposes the question-answering service over an HTTP JSON
// API, with per-client rate limiting and service metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/fastdatascience/insolvencybot/bot"
	"github.com/fastdatascience/insolvencybot/config"
	"github.com/fastdatascience/insolvencybot/llm"
	"github.com/fastdatascience/insolvencybot/metrics"
	"github.com/fastdatascience/insolvencybot/ratelimit"
)

// Server wires the HTTP surface to the bot, rate limiter, and metrics.
type Server struct {
	cfg       *config.Config
	bot       *bot.Bot
	limiter   *ratelimit.Limiter
	collector *metrics.Collector
	logger    zerolog.Logger
	startedAt time.Time
}

// New builds a Server. All dependencies are injected; none are optional
// except the collector, which may be nil to disable service metrics.
func New(cfg *config.Config, b *bot.Bot, limiter *ratelimit.Limiter, collector *metrics.Collector, logger zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		bot:       b,
		limiter:   limiter,
		collector: collector,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the fully assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("POST /ask", s.requireAPIKey(s.rateLimited(s.handleAsk)))
	mux.HandleFunc("GET /metrics", s.requireAPIKey(s.handleMetrics))
	mux.HandleFunc("GET /diagnostic", s.requireAPIKey(s.handleDiagnostic))
	mux.Handle("GET /metrics/prometheus", promhttp.Handler())

	return s.withRequestLog(s.withCORS(mux))
}

// minQuestionLength is enforced at the API surface; the bot itself only
// rejects empty questions.
const minQuestionLength = 10

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "insolvencybot",
		"status":  "ok",
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.cfg.HasProviderCredential() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	models := llm.SupportedModels()
	writeJSON(w, http.StatusOK, map[string]any{
		"models": models,
		"ids": lo.Map(models, func(m llm.ModelInfo, _ int) string {
			return m.ID
		}),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(strings.TrimSpace(req.Question)) < minQuestionLength {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("question must be at least %d characters", minQuestionLength))
		return
	}
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	answer, err := s.bot.Answer(r.Context(), req.Question, model)
	if err != nil {
		s.writeAskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) writeAskError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidInput *bot.InvalidInputError
	var configuration *bot.ConfigurationError
	var exhausted *bot.ExhaustedRetriesError
	var fatal *bot.FatalProviderError

	logger := zerolog.Ctx(r.Context())
	switch {
	case errors.As(err, &invalidInput):
		writeError(w, http.StatusBadRequest, invalidInput.Error())
	case errors.As(err, &configuration):
		logger.Error().Err(err).Msg("question rejected: provider not configured")
		writeError(w, http.StatusServiceUnavailable, "the requested model is not available")
	case errors.As(err, &exhausted):
		logger.Error().Err(err).Int("attempts", exhausted.Attempts).Msg("question failed after retries")
		writeError(w, http.StatusBadGateway, "the language model is unavailable, please retry later")
	case errors.As(err, &fatal):
		logger.Error().Err(err).Msg("question failed with provider error")
		writeError(w, http.StatusBadGateway, "the language model rejected the request")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing useful to write.
		writeError(w, 499, "request canceled")
	default:
		logger.Error().Err(err).Msg("question failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusNotFound, "metrics collection is disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Summary())
}

// handleDiagnostic reports runtime and configuration state for operators:
// provider availability, effective limits, and the current metrics summary.
func (s *Server) handleDiagnostic(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"service":       "insolvencybot",
		"go_version":    runtime.Version(),
		"goroutines":    runtime.NumGoroutine(),
		"uptime":        time.Since(s.startedAt).Round(time.Second).String(),
		"default_model": s.cfg.DefaultModel,
		"providers": map[string]bool{
			"openai":    s.cfg.OpenAI.APIKey != "",
			"anthropic": s.cfg.Anthropic.APIKey != "",
		},
		"rate_limits": map[string]int{
			"per_minute": s.cfg.RateLimit.PerMinute,
			"per_hour":   s.cfg.RateLimit.PerHour,
			"per_day":    s.cfg.RateLimit.PerDay,
		},
	}
	if s.limiter != nil {
		payload["tracked_clients"] = s.limiter.ClientCount()
	}
	if s.collector != nil {
		payload["metrics"] = s.collector.Summary()
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// clientID derives the rate-limiting identity for a request.
func clientID(r *http.Request) string {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			apiKey = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return ratelimit.ClientID(apiKey, r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
}
