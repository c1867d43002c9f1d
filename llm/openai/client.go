package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fastdatascience/insolvencybot/llm"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI API errors don't directly expose retry-after headers.
// We use a default retry-after duration for rate limits.
const defaultRetryAfter = 60 * time.Second

// Client implements the llm.Client interface for OpenAI's chat completion API.
type Client struct {
	client *openai.Client
}

// NewClient creates a new OpenAI client.
// If baseURL is non-empty it overrides the official endpoint, which also
// covers OpenAI-compatible hosted models.
func NewClient(apiKey, baseURL, organization string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &Client{client: openai.NewClientWithConfig(config)}, nil
}

// Synchronous implements llm.Client.Synchronous.
func (c *Client) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertError(err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, llm.NewTransientError("OpenAI returned no choices", 0, nil)
	}
	choice := chatResp.Choices[0]

	stopReason := "stop"
	if choice.FinishReason == openai.FinishReasonLength {
		stopReason = "max_tokens"
	}

	return &llm.Response{
		Text: choice.Message.Content,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.Usage.PromptTokens),
			OutputTokens: int64(chatResp.Usage.CompletionTokens),
		},
		StopReason: stopReason,
	}, nil
}

// toOpenAIMessages converts the neutral request into OpenAI chat messages,
// prepending the system prompt when present.
func toOpenAIMessages(req *llm.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case llm.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case llm.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case llm.RoleUser:
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	return msgs
}

// convertError converts OpenAI API and transport errors to llm.Error values.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		// Not an API error: transport-level failure.
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return llm.NewConnectionError("OpenAI connection failure", err)
		}
		return llm.NewConnectionError("OpenAI request failed before a response was received", err)
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError(
			fmt.Sprintf("OpenAI rate limit: %s", apiErr.Message),
			&retryAfter,
			err,
		)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return llm.NewTransientError(
			fmt.Sprintf("OpenAI server error: %s", apiErr.Message),
			apiErr.HTTPStatusCode,
			err,
		)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return llm.NewInvalidRequestError(
			fmt.Sprintf("OpenAI invalid request: %s", apiErr.Message),
			apiErr.HTTPStatusCode,
			err,
		)
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.NewAuthError(
			fmt.Sprintf("OpenAI authentication rejected: %s", apiErr.Message),
			apiErr.HTTPStatusCode,
			err,
		)
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeUnknown,
			Message:     fmt.Sprintf("OpenAI API error: %s", apiErr.Message),
			Retryable:   false,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	}
}

var _ llm.Client = (*Client)(nil)
