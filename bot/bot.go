// Package bot orchestrates LLM invocation for insolvency-law questions: input
// validation, the retry/backoff protocol against the provider, and assembly of
// the raw answer with extracted citations into a structured result.
//
// The orchestrator is the sole interpreter of provider error classes. Callers
// only ever see four outcomes besides success: InvalidInputError,
// ConfigurationError, ExhaustedRetriesError and FatalProviderError.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/fastdatascience/insolvencybot/citations"
	"github.com/fastdatascience/insolvencybot/llm"
	"github.com/fastdatascience/insolvencybot/metrics"
)

const (
	systemPrompt = "You are an expert in UK insolvency law."

	questionPrompt = "You are an expert insolvency law assistant. Given this legal scenario, " +
		"provide your advice in plain English. Include references to UK statutes, " +
		"legal cases, and any official forms if applicable.\n\nQuestion: "

	// Fixed sampling parameters. Not tunable per call.
	temperature     = 0.7
	maxOutputTokens = 1200
)

// RetryPolicy bounds the retry/backoff protocol. Waits are attempt-indexed
// powers of two of InitialInterval, capped at MaxInterval; MaxElapsedTime
// bounds the total time spent retrying.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy matches the historical service behavior with capped waits.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 1 * time.Second,
	MaxInterval:     time.Minute,
	MaxElapsedTime:  5 * time.Minute,
}

// Answer is the structured result of a successful invocation. The three
// citation lists are order-preserving and deduplicated.
type Answer struct {
	Text        string   `json:"response"`
	Legislation []string `json:"legislation"`
	Cases       []string `json:"cases"`
	Forms       []string `json:"forms"`
}

// Bot answers questions by delegating to a provider client resolved per model.
// Safe for concurrent use; a call blocks its own goroutine only.
type Bot struct {
	registry  *llm.Registry
	policy    RetryPolicy
	collector *metrics.Collector // optional
	logger    zerolog.Logger

	// sleep waits between attempts; replaced in tests to observe backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Bot. collector may be nil to disable instrumentation.
func New(registry *llm.Registry, policy RetryPolicy, collector *metrics.Collector, logger zerolog.Logger) *Bot {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = DefaultRetryPolicy.MaxRetries
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultRetryPolicy.MaxInterval
	}
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = DefaultRetryPolicy.MaxElapsedTime
	}
	return &Bot{
		registry:  registry,
		policy:    policy,
		collector: collector,
		logger:    logger.With().Str("component", "bot").Logger(),
		sleep:     waitForRetry,
	}
}

// Answer processes a legal question with the given model and returns the raw
// answer plus extracted citations. An answer with zero citation matches is a
// valid success, not an error.
func (b *Bot) Answer(ctx context.Context, question, model string) (*Answer, error) {
	if !llm.IsSupportedModel(model) {
		return nil, &InvalidInputError{Reason: "model " + model + " is not supported"}
	}
	if strings.TrimSpace(question) == "" {
		return nil, &InvalidInputError{Reason: "question text cannot be empty"}
	}

	client, err := b.registry.ClientFor(model)
	if err != nil {
		return nil, &ConfigurationError{Reason: "no provider credential available", Err: err}
	}

	if b.collector != nil {
		b.collector.RecordRequest(model)
	}

	temp := temperature
	req := &llm.Request{
		Model:       model,
		System:      systemPrompt,
		Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, questionPrompt+question)},
		MaxTokens:   maxOutputTokens,
		Temperature: &temp,
	}

	start := time.Now()
	resp, err := b.invokeWithRetries(ctx, client, req)
	if err != nil {
		if b.collector != nil {
			b.collector.RecordError(statusOf(err))
		}
		return nil, err
	}
	if b.collector != nil {
		b.collector.RecordResponseTime(time.Since(start))
	}

	refs := citations.Extract(resp.Text)
	answer := &Answer{
		Text:        resp.Text,
		Legislation: refs.Legislation,
		Cases:       refs.Cases,
		Forms:       refs.Forms,
	}

	b.logger.Info().
		Str("model", model).
		Dur("elapsed", time.Since(start)).
		Int("legislation", len(answer.Legislation)).
		Int("cases", len(answer.Cases)).
		Int("forms", len(answer.Forms)).
		Msg("Question processed")

	return answer, nil
}

// invokeWithRetries performs the call/retry/backoff protocol. Retryable
// provider failures (rate limit, transient outage, connection failure) are
// retried up to MaxRetries attempts; any other failure is fatal immediately.
func (b *Bot) invokeWithRetries(ctx context.Context, client llm.Client, req *llm.Request) (*llm.Response, error) {
	bo := b.newBackOff()

	var lastErr error
	for attempt := 0; attempt < b.policy.MaxRetries; attempt++ {
		b.logger.Debug().
			Int("attempt", attempt+1).
			Int("max_retries", b.policy.MaxRetries).
			Str("model", req.Model).
			Msg("Provider call attempt")

		resp, err := client.Synchronous(ctx, req)
		if err == nil {
			return resp, nil
		}

		if !llm.IsRetryableError(err) {
			b.logger.Error().Err(err).Str("model", req.Model).Msg("Non-retryable provider error")
			return nil, &FatalProviderError{Err: err}
		}

		lastErr = err
		if attempt == b.policy.MaxRetries-1 {
			break
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			b.logger.Warn().Int("attempt", attempt+1).Msg("Retry time budget exhausted")
			break
		}

		b.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("Retryable provider error, backing off")

		if err := b.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	b.logger.Error().
		Err(lastErr).
		Int("max_retries", b.policy.MaxRetries).
		Msg("All provider call attempts failed")
	return nil, &ExhaustedRetriesError{Attempts: b.policy.MaxRetries, Last: lastErr}
}

// newBackOff builds the attempt-indexed exponential schedule: InitialInterval,
// doubled per attempt, deterministic, capped by MaxInterval and MaxElapsedTime.
func (b *Bot) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.policy.InitialInterval
	eb.Multiplier = 2.0
	eb.RandomizationFactor = 0
	eb.MaxInterval = b.policy.MaxInterval
	eb.MaxElapsedTime = b.policy.MaxElapsedTime
	eb.Reset()
	return eb
}

// waitForRetry waits for the delay, respecting context cancellation.
func waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// statusOf maps an orchestration failure to the status code recorded in
// metrics.
func statusOf(err error) int {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		if llmErr.Type == llm.ErrorTypeRateLimit {
			return 429
		}
		if llmErr.StatusCode != 0 {
			return llmErr.StatusCode
		}
	}

	var exhausted *ExhaustedRetriesError
	if errors.As(err, &exhausted) {
		return 503
	}
	return 502
}
