// Package llm provides centralized LLM configuration and client abstractions.
// Every model call in the job agent goes through the Client and Embedder interfaces defined here.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: title expansion, short lists
	TierLite ModelTier = "lite"
	// TierStandard is for free-text advice: tailoring and skill suggestions
	TierStandard ModelTier = "standard"
	// TierAdvanced is for retrieval-augmented answers over the knowledge base
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultEmbeddingModel is the Gemini embedding model used by the knowledge base
const DefaultEmbeddingModel = "embedding-001"

// DefaultRequestsPerMinute keeps the free Gemini tier from rejecting bursts
const DefaultRequestsPerMinute = 60

// Config holds the model configuration for the application
type Config struct {
	Provider          Provider
	Models            map[ModelTier]string
	EmbeddingModel    string
	Temperature       float32
	RequestsPerMinute int
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-flash",
		},
		EmbeddingModel:    DefaultEmbeddingModel,
		Temperature:       0.3,
		RequestsPerMinute: DefaultRequestsPerMinute,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
