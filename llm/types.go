package llm

import "context"

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message represents a single role-tagged message in a completion request.
type Message struct {
	Role MessageRole
	Text string
}

// Request represents a complete LLM completion request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int64
	Temperature *float64 // Optional temperature override
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response represents a complete LLM completion response.
type Response struct {
	Text       string
	Usage      *Usage
	StopReason string
}

// Client provides a provider-neutral interface for making LLM API calls.
// Implementations handle provider-specific details internally and return
// only *Error values on failure.
type Client interface {
	// Synchronous sends a request and returns a complete response.
	Synchronous(ctx context.Context, req *Request) (*Response, error)
}

// NewTextMessage creates a message with the given role and text.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Text: text}
}
