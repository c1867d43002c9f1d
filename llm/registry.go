package llm

import (
	"fmt"
	"sync"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ModelInfo describes a single supported model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"-"`
}

// supportedModels is the fixed set of models the bot accepts, in the order
// they are presented to callers.
var supportedModels = []ModelInfo{
	{
		ID:          "gpt-3.5-turbo",
		Name:        "GPT-3.5 Turbo",
		Description: "Faster and more economical model, suitable for straightforward questions",
		Provider:    ProviderOpenAI,
	},
	{
		ID:          "gpt-4",
		Name:        "GPT-4",
		Description: "More advanced model with better reasoning capabilities",
		Provider:    ProviderOpenAI,
	},
	{
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Description: "Latest model with the most comprehensive capabilities",
		Provider:    ProviderOpenAI,
	},
	{
		ID:          "claude-3-5-sonnet-20241022",
		Name:        "Claude 3.5 Sonnet",
		Description: "Anthropic model with strong legal reasoning",
		Provider:    ProviderAnthropic,
	},
}

// SupportedModels returns the supported model set in presentation order.
func SupportedModels() []ModelInfo {
	out := make([]ModelInfo, len(supportedModels))
	copy(out, supportedModels)
	return out
}

// IsSupportedModel reports whether model belongs to the supported set.
func IsSupportedModel(model string) bool {
	_, ok := ProviderFor(model)
	return ok
}

// ProviderFor returns the provider responsible for the given model.
func ProviderFor(model string) (string, bool) {
	for _, m := range supportedModels {
		if m.ID == model {
			return m.Provider, true
		}
	}
	return "", false
}

// Registry maps providers to configured clients. Clients are registered once
// at process start; lookup is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// RegisterClient registers the client for a provider, replacing any previous one.
func (r *Registry) RegisterClient(provider string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[provider] = client
}

// IsProviderConfigured reports whether a client has been registered for the provider.
func (r *Registry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[provider]
	return ok
}

// ClientFor returns the client serving the given model. The model must be in
// the supported set; a supported model whose provider has no registered client
// means the provider credential was absent at startup.
func (r *Registry) ClientFor(model string) (Client, error) {
	provider, ok := ProviderFor(model)
	if !ok {
		return nil, fmt.Errorf("model %s is not in the supported set", model)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s is not configured", provider)
	}
	return client, nil
}
