package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

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

func TestSettingsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[Search]")
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "[Chat]")
	assert.Contains(t, out, "Max Documents:")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = &mockSettingsService{
		settings:    domain.DefaultAppSettings(),
		validateErr: errors.New("LLM provider not configured"),
	}

	out, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: LLM provider not configured")
}

func TestSettingsChat_UpdatesOnlyChangedFields(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	svc := &mockSettingsService{settings: domain.DefaultAppSettings()}
	settingsService = svc

	out, err := execute(t, "settings", "chat", "--max-documents", "4", "--stop-sequence", "")

	require.NoError(t, err)
	assert.Contains(t, out, "Chat settings updated.")
	require.NotNil(t, svc.chat)
	assert.Equal(t, 4, svc.chat.MaxDocuments)
	assert.Empty(t, svc.chat.StopSequence)
	assert.Equal(t, domain.DefaultChatSettings().RecentResetTokens, svc.chat.RecentResetTokens)
	assert.Equal(t, domain.DefaultChatSettings().LanguageHint, svc.chat.LanguageHint)
}

func TestSettingsChat_NoFlags(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "settings", "chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chat settings given")
}

func TestSettingsLLM_WithFlags(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	svc := &mockSettingsService{settings: domain.DefaultAppSettings()}
	settingsService = svc

	out, err := execute(t, "settings", "llm", "--provider", "ollama", "--model", "llama3")

	require.NoError(t, err)
	assert.Equal(t, []string{"ollama", "llama3", "", ""}, svc.llm)
	assert.Contains(t, out, "LLM provider configured")
}

func TestSettingsLLM_UnknownProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "settings", "llm", "--provider", "mystery")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown LLM provider "mystery"`)
}

func TestSettingsLLM_ValidationFails(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		llmErr:   errors.New("connection refused"),
	}

	_, err := execute(t, "settings", "llm", "--provider", "ollama")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestSettingsCommands_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	for _, args := range [][]string{{"settings", "show"}, {"settings", "chat", "--max-documents", "2"}} {
		_, err := execute(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}

func TestOrNone(t *testing.T) {
	assert.Equal(t, "(none)", orNone(`""`, ""))
	assert.Equal(t, `"</answer>"`, orNone(`"</answer>"`, "</answer>"))
}

// withInput feeds stdin to the next execution.
func withInput(t *testing.T, input string) {
	t.Helper()
	rootCmd.SetIn(strings.NewReader(input))
	t.Cleanup(func() { rootCmd.SetIn(nil) })
}

func TestSettingsMode_Interactive(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	svc := &mockSettingsService{settings: domain.DefaultAppSettings()}
	settingsService = svc
	withInput(t, "3\n")

	out, err := execute(t, "settings", "mode")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLLMAssisted, svc.settings.Search.Mode)
	assert.Contains(t, out, "Search mode set to: LLM Assisted")
	assert.Contains(t, out, "needs an LLM provider")
	assert.NotContains(t, out, "needs an embedding provider")
}

func TestSettingsMode_InvalidChoice(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	withInput(t, "9\n")

	_, err := execute(t, "settings", "mode")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selection")
}

func TestSettingsWizard_TextOnlyWithOllama(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	svc := &mockSettingsService{settings: domain.DefaultAppSettings()}
	settingsService = svc
	// Mode 1, LLM provider 1 (ollama), default model.
	withInput(t, "1\n1\n\n")

	out, err := execute(t, "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeTextOnly, svc.settings.Search.Mode)
	assert.Equal(t, []string{"ollama", "llama3.2", "", ""}, svc.llm)
	assert.Contains(t, out, "embedding provider skipped")
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsLLM_InteractiveRequiresKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	t.Setenv(envLLMAPIKey, "")
	// OpenAI, default model, empty key.
	withInput(t, "2\n\n\n")

	_, err := execute(t, "settings", "llm")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestPrintProvider(t *testing.T) {
	var b strings.Builder
	printProvider(&b, "LLM", domain.AIProviderOpenAI, "gpt-4o-mini", "", "sk-1234567890abcdef", true)

	out := b.String()
	assert.Contains(t, out, "[LLM]")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.Contains(t, out, "Status: configured")
	assert.NotContains(t, out, "Base URL")
}
