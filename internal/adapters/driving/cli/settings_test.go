package cli

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestReadLine(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("  first  \nsecond"))
	assert.Equal(t, "first", readLine(reader))
	assert.Equal(t, "second", readLine(reader))
	assert.Equal(t, "", readLine(reader))
}

func TestSettingsShowCmd(t *testing.T) {
	t.Run("shows every section", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "", "settings", "show")

		require.NoError(t, err)
		for _, want := range []string{"[Chunking]", "Size: 1000", "[Embedding]", "Feature hashing", "[Retrieval]", "Top K: 5", "[Storage]", "(default)", ".ragignore", "Configuration is valid."} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("masks the API key", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.settings.settings.Embedding = domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-1234567890abcdef",
		}

		out, err := execute(t, "", "settings")

		require.NoError(t, err)
		assert.Contains(t, out, "API Key: sk-1...cdef")
		assert.NotContains(t, out, "sk-1234567890abcdef")
	})

	t.Run("text only", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.settings.settings.Embedding = domain.EmbeddingSettings{}

		out, err := execute(t, "", "settings", "show")

		require.NoError(t, err)
		assert.Contains(t, out, "Provider: none (text only)")
		assert.Contains(t, out, "Status: not configured")
	})

	t.Run("warns on invalid settings", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.settings.validateErr = errors.New("chunk overlap too large")

		out, err := execute(t, "", "settings", "show")

		require.NoError(t, err)
		assert.Contains(t, out, "Warning: chunk overlap too large")
	})
}

func TestSettingsSetCmd(t *testing.T) {
	t.Run("sets a value", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		out, err := execute(t, "", "settings", "set", "chunking.size", "800")

		require.NoError(t, err)
		assert.Contains(t, out, "Set chunking.size = 800")
		assert.Equal(t, "800", ts.settings.set["chunking.size"])
	})

	t.Run("masks API keys", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "", "settings", "set", "embedding.api_key", "sk-1234567890abcdef")

		require.NoError(t, err)
		assert.NotContains(t, out, "sk-1234567890abcdef")
	})

	t.Run("invalid key", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "", "settings", "set", "bogus", "1")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsKeysCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "", "settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "chunking.overlap\nchunking.size\n", out)
}

func TestSettingsEmbeddingCmd(t *testing.T) {
	t.Run("defaults to the first provider", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		out, err := execute(t, "\n\n", "settings", "embedding")

		require.NoError(t, err)
		assert.Contains(t, out, "Validating configuration... OK")
		assert.Equal(t, domain.AllEmbeddingProviders()[0], ts.settings.gotProvider)
		assert.Equal(t, domain.DefaultEmbeddingModels()[ts.settings.gotProvider], ts.settings.gotModel)
	})

	t.Run("custom model", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		_, err := execute(t, "2\nmxbai-embed-large\n", "settings", "embedding")

		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, ts.settings.gotProvider)
		assert.Equal(t, "mxbai-embed-large", ts.settings.gotModel)
	})

	t.Run("none disables embeddings", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()

		out, err := execute(t, "4\n", "settings", "embedding")

		require.NoError(t, err)
		assert.Contains(t, out, "Embeddings disabled")
		assert.Equal(t, "none", ts.settings.set["embedding.provider"])
	})

	t.Run("validation failure", func(t *testing.T) {
		ts, cleanup := setupMockServices()
		defer cleanup()
		ts.settings.pingErr = errors.New("connection refused")

		out, err := execute(t, "\n\n", "settings", "embedding")

		require.Error(t, err)
		assert.Contains(t, out, "FAILED: connection refused")
	})
}

func TestSettingsWizardCmd(t *testing.T) {
	ts, cleanup := setupMockServices()
	defer cleanup()

	out, err := execute(t, "1\n\n600\n\n8\n4000\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Setup complete.")
	assert.Equal(t, map[string]string{
		"chunking.size":       "600",
		"retrieval.top_k":     "8",
		"retrieval.max_chars": "4000",
	}, ts.settings.set)
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	for _, args := range [][]string{
		{"settings", "show"},
		{"settings", "set", "chunking.size", "1"},
		{"settings", "keys"},
		{"settings", "wizard"},
		{"settings", "embedding"},
	} {
		_, err := execute(t, "", args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}
