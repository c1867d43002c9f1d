package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fastdatascience/insolvencybot/bot"
	"github.com/fastdatascience/insolvencybot/config"
	"github.com/fastdatascience/insolvencybot/llm"
	"github.com/fastdatascience/insolvencybot/metrics"
	"github.com/fastdatascience/insolvencybot/ratelimit"
)

type stubClient struct {
	text string
	err  error
}

func (c *stubClient) Synchronous(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Text: c.text}, nil
}

func newTestServer(t *testing.T, client llm.Client, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.OpenAI.APIKey = "sk-test"
	if mutate != nil {
		mutate(&cfg)
	}

	registry := llm.NewRegistry()
	if client != nil {
		registry.RegisterClient(llm.ProviderOpenAI, client)
	}

	logger := zerolog.Nop()
	collector := metrics.NewCollector(metrics.DefaultSampleCapacity, metrics.DefaultRetention)
	b := bot.New(registry, bot.RetryPolicy{MaxRetries: 1}, collector, logger)
	limiter := ratelimit.NewLimiter(ratelimit.Limits{
		PerMinute: cfg.RateLimit.PerMinute,
		PerHour:   cfg.RateLimit.PerHour,
		PerDay:    cfg.RateLimit.PerDay,
		Retention: cfg.RateLimit.Retention,
	}, logger)

	return New(&cfg, b, limiter, collector, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:54321"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["service"] != "insolvencybot" {
		t.Errorf("unexpected service name %v", body["service"])
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %v", body["status"])
	}

	degraded := newTestServer(t, nil, func(c *config.Config) { c.OpenAI.APIKey = "" })
	_, body = doJSON(t, degraded.Handler(), http.MethodGet, "/healthz", "", nil)
	if body["status"] != "degraded" {
		t.Errorf("expected degraded without credentials, got %v", body["status"])
	}
}

func TestModels(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/models", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	ids, ok := body["ids"].([]any)
	if !ok || len(ids) != len(llm.SupportedModels()) {
		t.Fatalf("unexpected ids list: %v", body["ids"])
	}
	if ids[0] != "gpt-3.5-turbo" {
		t.Errorf("expected gpt-3.5-turbo first, got %v", ids[0])
	}
}

func TestAsk(t *testing.T) {
	srv := newTestServer(t, &stubClient{
		text: "See section 123 of the Insolvency Act 1986 and Form 4.19 (Scot).",
	}, nil)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/ask",
		`{"question":"Is the company insolvent?","model":"gpt-4"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(body["response"].(string), "Insolvency Act") {
		t.Errorf("unexpected response text %v", body["response"])
	}
	// Both the named-act and the Section-N recognizers match the stub text.
	legislation, _ := body["legislation"].([]any)
	if len(legislation) != 2 {
		t.Fatalf("expected two legislation references, got %v", body["legislation"])
	}
	if legislation[0] != "the Insolvency Act 1986" ||
		legislation[1] != "section 123 of the Insolvency Act 1986" {
		t.Errorf("unexpected legislation references %v", legislation)
	}
	forms, _ := body["forms"].([]any)
	if len(forms) != 1 {
		t.Errorf("expected one form reference, got %v", body["forms"])
	}
}

func TestAskDefaultsModel(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "plain answer"}, nil)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/ask",
		`{"question":"What is a CVA?"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with default model, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAskBadRequest(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/ask", `{"question":"  "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank question, got %d", rec.Code)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/ask", `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/ask",
		`{"question":"is this company insolvent?","model":"gpt-99"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown model, got %d", rec.Code)
	}
}

func TestAskQuestionTooShort(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/ask", `{"question":"hi?"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short question, got %d", rec.Code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "at least 10 characters") {
		t.Errorf("unexpected error message %q", msg)
	}

	// Whitespace padding must not satisfy the minimum.
	rec, _ = doJSON(t, srv.Handler(), http.MethodPost, "/ask",
		`{"question":"hi?       "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for padded short question, got %d", rec.Code)
	}
}

func TestAskUnconfiguredProvider(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/ask",
		`{"question":"what is a winding up order?","model":"claude-3-5-sonnet-20241022"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for unconfigured provider, got %d", rec.Code)
	}
}

func TestAskProviderFailure(t *testing.T) {
	srv := newTestServer(t, &stubClient{
		err: llm.NewAuthError("bad key", http.StatusUnauthorized, nil),
	}, nil)
	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/ask",
		`{"question":"what is a winding up order?","model":"gpt-4"}`, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for fatal provider error, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, func(c *config.Config) {
		c.RateLimit.PerMinute = 1
	})
	h := srv.Handler()

	rec, _ := doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is the first creditor step?"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request admitted, got %d", rec.Code)
	}
	rec, _ = doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is the second creditor step?"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}
}

func TestRateLimitPerClient(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, func(c *config.Config) {
		c.RateLimit.PerMinute = 1
	})
	h := srv.Handler()

	rec, _ := doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is the first creditor step?"}`,
		map[string]string{"X-Forwarded-For": "198.51.100.1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first client admitted, got %d", rec.Code)
	}
	rec, _ = doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is the first creditor step?"}`,
		map[string]string{"X-Forwarded-For": "198.51.100.2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected distinct client admitted, got %d", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, func(c *config.Config) {
		c.APIKey = "service-secret"
	})
	h := srv.Handler()

	rec, _ := doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is a winding up order?"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is a winding up order?"}`,
		map[string]string{"X-API-Key": "service-secret"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/metrics", "",
		map[string]string{"X-API-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong metrics key, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	h := srv.Handler()

	for range 3 {
		doJSON(t, h, http.MethodPost, "/ask", `{"question":"what is a winding up order?"}`, nil)
	}

	rec, body := doJSON(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["total_requests"].(float64) != 3 {
		t.Errorf("expected 3 total requests, got %v", body["total_requests"])
	}
}

func TestDiagnostic(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, func(c *config.Config) {
		c.APIKey = "service-secret"
	})
	h := srv.Handler()

	rec, _ := doJSON(t, h, http.MethodGet, "/diagnostic", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	rec, body := doJSON(t, h, http.MethodGet, "/diagnostic", "",
		map[string]string{"X-API-Key": "service-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	providers, ok := body["providers"].(map[string]any)
	if !ok || providers["openai"] != true || providers["anthropic"] != false {
		t.Errorf("unexpected provider availability %v", body["providers"])
	}
	if body["default_model"] != "gpt-3.5-turbo" {
		t.Errorf("unexpected default model %v", body["default_model"])
	}
	if _, ok := body["metrics"].(map[string]any); !ok {
		t.Errorf("expected embedded metrics summary, got %v", body["metrics"])
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard CORS origin")
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, &stubClient{text: "ok"}, nil)
	rec, _ := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated request ID")
	}

	rec, _ = doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "",
		map[string]string{"X-Request-ID": "req-123"})
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected caller request ID to be echoed, got %q", got)
	}
}
