// Package llm provides a provider-neutral interface for LLM chat completions.
//
// The package defines:
//   - Client: the interface all provider adapters implement
//   - Request/Response: provider-neutral completion types
//   - Error: a neutral error type carrying a retryability classification
//   - Registry: the fixed set of supported models and their providers
//
// Provider-specific adapters live in subpackages (openai, anthropic) and are
// responsible for converting provider errors into the neutral taxonomy. Code
// above this package never sees a raw provider error.
package llm
