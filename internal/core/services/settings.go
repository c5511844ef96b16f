package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driven"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedTimeout      = "embedding.timeout"
	keyEmbedRate         = "embedding.rate_per_second"
	keyEmbedBurst        = "embedding.burst"
	keyTopK              = "retrieval.top_k"
	keyMaxChars          = "retrieval.max_chars"
	keyIncludeSuperseded = "retrieval.include_superseded"
	keyDataDir           = "storage.data_dir"
	keyIgnoreFile        = "ingestion.ignore_file"
)

// ProviderNone is stored as the embedding provider to disable embeddings.
const ProviderNone = "none"

// EnvOpenAIAPIKey is read when no OpenAI key is configured.
//
//nolint:gosec // G101: environment variable name, not a credential.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindProvider
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]settingKind{
	keyChunkSize:         kindInt,
	keyChunkOverlap:      kindInt,
	keyEmbedProvider:     kindProvider,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedDimensions:   kindInt,
	keyEmbedTimeout:      kindDuration,
	keyEmbedRate:         kindFloat,
	keyEmbedBurst:        kindInt,
	keyTopK:              kindInt,
	keyMaxChars:          kindInt,
	keyIncludeSuperseded: kindBool,
	keyDataDir:           kindString,
	keyIgnoreFile:        kindString,
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
}

// NewSettingsService creates a new settings service.
// validator may be nil, in which case provider connectivity is not checked.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Embedding.Provider)

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:      provider,
			Model:         s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[provider]),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL), // Empty is valid for cloud providers
			APIKey:        s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:    s.configStore.GetInt(keyEmbedDimensions),
			Timeout:       s.getDuration(keyEmbedTimeout, defaults.Embedding.Timeout),
			RatePerSecond: s.configStore.GetFloat(keyEmbedRate),
			Burst:         s.getInt(keyEmbedBurst, defaults.Embedding.Burst),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:              s.getInt(keyTopK, defaults.Retrieval.TopK),
			MaxChars:          s.getInt(keyMaxChars, defaults.Retrieval.MaxChars),
			IncludeSuperseded: s.getBool(keyIncludeSuperseded, defaults.Retrieval.IncludeSuperseded),
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyDataDir),
		},
		Ingestion: domain.IngestionSettings{
			IgnoreFile: s.getString(keyIgnoreFile, defaults.Ingestion.IgnoreFile),
		},
	}

	if provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = os.Getenv(EnvOpenAIAPIKey)
	}

	return settings, nil
}

// Save persists application settings.
// An API key taken from the environment is not written to disk.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	provider := settings.Embedding.Provider.String()
	if provider == "" {
		provider = ProviderNone
	}

	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyEmbedProvider, provider},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedTimeout, settings.Embedding.Timeout.String()},
		{keyEmbedRate, settings.Embedding.RatePerSecond},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyTopK, settings.Retrieval.TopK},
		{keyMaxChars, settings.Retrieval.MaxChars},
		{keyIncludeSuperseded, settings.Retrieval.IncludeSuperseded},
		{keyDataDir, settings.Storage.DataDir},
		{keyIgnoreFile, settings.Ingestion.IgnoreFile},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	apiKey := settings.Embedding.APIKey
	if apiKey != "" && apiKey != os.Getenv(EnvOpenAIAPIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// Set parses value according to the type of key and stores it.
// A value that would leave the settings invalid is rolled back.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)",
			domain.ErrInvalidInput, key, strings.Join(SettingKeys(), ", "))
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.Validate(); err != nil {
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Unset(key)
		}
		return err
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" && os.Getenv(EnvOpenAIAPIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultOllamaBaseURL
		}
	} else {
		// Other providers use their default endpoint.
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey
	// Dimensions follow the new model.
	settings.Embedding.Dimensions = 0

	if err := s.Save(settings); err != nil {
		return err
	}
	if apiKey == "" {
		return s.configStore.Unset(keyEmbedAPIKey)
	}
	return nil
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	stored := s.configStore.GetString(keyEmbedProvider)
	if stored != "" && stored != ProviderNone && !domain.AIProvider(stored).IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, stored)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// Keys returns the dotted keys accepted by Set.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

func parseSetting(kind settingKind, value string) (any, error) {
	value = strings.TrimSpace(value)

	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("duration must be positive")
		}
		return d.String(), nil
	case kindProvider:
		if value == "" || value == ProviderNone {
			return ProviderNone, nil
		}
		if !domain.AIProvider(value).IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return value, nil
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero treats a stored zero as a real value.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyEmbedProvider)
	switch val {
	case "":
		return defaultVal
	case ProviderNone:
		return ""
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
