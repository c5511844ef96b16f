package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// ChunkingSettings holds chunking engine configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// Validate checks that the chunking engine can make progress.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunkConfig, c.Size, c.Overlap)
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider. Empty disables embeddings.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int

	// Timeout bounds every provider call.
	Timeout time.Duration

	// RatePerSecond limits provider calls. Zero disables limiting.
	RatePerSecond float64

	// Burst is the token bucket size for rate limiting.
	Burst int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds search and context assembly configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks considered when assembling context.
	TopK int

	// MaxChars is the default context budget in characters.
	MaxChars int

	// IncludeSuperseded makes search consider older versions of a filename.
	IncludeSuperseded bool
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// DataDir is where the SQLite database lives. Empty uses ~/.projectrag/data.
	DataDir string
}

// IngestionSettings holds folder ingestion configuration.
type IngestionSettings struct {
	// IgnoreFile is the per-folder file holding gitignore-style exclusion patterns.
	IgnoreFile string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
	Ingestion IngestionSettings
}

// Default values for settings.
const (
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultTopK          = 5
	DefaultMaxChars      = 3000
	DefaultEmbedTimeout  = 30 * time.Second
	DefaultEmbedBurst    = 4
	DefaultIgnoreFile    = ".ragignore"
	DefaultHashingModel  = "hashing-bow"
	DefaultHashingDims   = 256
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// DefaultAppSettings returns settings with sensible defaults.
// The offline hashing provider is the default so ingestion produces
// vectors without any external service.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderHashing,
			Model:    DefaultHashingModel,
			Timeout:  DefaultEmbedTimeout,
			Burst:    DefaultEmbedBurst,
		},
		Retrieval: RetrievalSettings{
			TopK:     DefaultTopK,
			MaxChars: DefaultMaxChars,
		},
		Ingestion: IngestionSettings{
			IgnoreFile: DefaultIgnoreFile,
		},
	}
}

// Validate checks the settings for values that would break ingestion or retrieval.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval top_k must be positive", ErrInvalidInput)
	}
	if s.Retrieval.MaxChars <= 0 {
		return fmt.Errorf("%w: retrieval max_chars must be positive", ErrInvalidInput)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderHashing: DefaultHashingModel,
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Built-in
		DefaultHashingModel: DefaultHashingDims,
	}
}
