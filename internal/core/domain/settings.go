package domain

const unknownDescription = "Unknown"

// SearchMode selects which retrieval methods feed the answer context.
type SearchMode string

const (
	SearchModeTextOnly    SearchMode = "text_only"    // FTS5 keyword search
	SearchModeHybrid      SearchMode = "hybrid"       // keyword + vector
	SearchModeLLMAssisted SearchMode = "llm_assisted" // keyword with an LLM-rewritten query
	SearchModeFull        SearchMode = "full"         // keyword + vector + rewrite
)

type modeInfo struct {
	embedding   bool
	llm         bool
	description string
}

var searchModes = map[SearchMode]modeInfo{
	SearchModeTextOnly:    {description: "Text Only (keyword search)"},
	SearchModeHybrid:      {embedding: true, description: "Hybrid (text + semantic search)"},
	SearchModeLLMAssisted: {llm: true, description: "LLM Assisted (text + query expansion)"},
	SearchModeFull:        {embedding: true, llm: true, description: "Full (text + semantic + LLM)"},
}

// IsValid reports whether m is a known mode.
func (m SearchMode) IsValid() bool {
	_, ok := searchModes[m]
	return ok
}

// RequiresEmbedding reports whether m runs vector search.
func (m SearchMode) RequiresEmbedding() bool { return searchModes[m].embedding }

// RequiresLLM reports whether m rewrites the query with the LLM.
func (m SearchMode) RequiresLLM() bool { return searchModes[m].llm }

func (m SearchMode) String() string { return string(m) }

// Description is the label shown in menus and status lines.
func (m SearchMode) Description() string {
	if info, ok := searchModes[m]; ok {
		return info.description
	}
	return unknownDescription
}

// AIProvider names a backend for embeddings or chat completion.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerInfo struct {
	local       bool
	description string
}

var providers = map[AIProvider]providerInfo{
	AIProviderOllama:    {local: true, description: "Ollama (local)"},
	AIProviderOpenAI:    {description: "OpenAI (cloud)"},
	AIProviderAnthropic: {description: "Anthropic (cloud)"},
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// IsLocal reports whether p runs on this machine and is reached by base URL.
func (p AIProvider) IsLocal() bool { return providers[p].local }

// RequiresAPIKey is true for every known hosted provider.
func (p AIProvider) RequiresAPIKey() bool { return p.IsValid() && !p.IsLocal() }

func (p AIProvider) String() string { return string(p) }

// Description is the label shown in menus.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return unknownDescription
}

func providerConfigured(p AIProvider, apiKey string) bool {
	return p.IsValid() && (apiKey != "" || !p.RequiresAPIKey())
}

// SearchSettings configures retrieval.
type SearchSettings struct {
	Mode SearchMode
}

// EmbeddingSettings configures the query embedding provider. BaseURL is
// used by local providers, APIKey by hosted ones.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether a service can be built from e.
func (e EmbeddingSettings) IsConfigured() bool {
	return providerConfigured(e.Provider, e.APIKey)
}

// LLMSettings configures the chat model, with the same field rules as
// EmbeddingSettings.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether a service can be built from l.
func (l LLMSettings) IsConfigured() bool {
	return providerConfigured(l.Provider, l.APIKey)
}

// NoStopSequence disables stop-sequence truncation of answers.
const NoStopSequence = ""

// ChatSettings holds answer generation and citation behaviour.
type ChatSettings struct {
	// StopSequence truncates the model output where it first appears.
	StopSequence string

	// MaxDocuments caps how many documents are given to the model.
	MaxDocuments int

	// RecentResetTokens is how many consecutive tokens without a citation
	// clear the recently-cited set, allowing a document to be cited again.
	RecentResetTokens int

	// LanguageHint is inserted after untagged code fences. Empty disables it.
	LanguageHint string

	// RequestsPerMinute limits calls to the LLM. Zero means unlimited.
	RequestsPerMinute int
}

// AppSettings is everything persisted in config.toml.
type AppSettings struct {
	Search    SearchSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chat      ChatSettings
}

// DefaultAppSettings starts in keyword mode with no AI providers.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{Mode: SearchModeTextOnly},
		Chat:   DefaultChatSettings(),
	}
}

// DefaultChatSettings returns the default answer generation settings.
func DefaultChatSettings() ChatSettings {
	return ChatSettings{
		StopSequence:      NoStopSequence,
		MaxDocuments:      10,
		RecentResetTokens: 5,
		LanguageHint:      "plaintext",
		RequestsPerMinute: 30,
	}
}

// AllSearchModes lists modes in menu order.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeTextOnly, SearchModeHybrid, SearchModeLLMAssisted, SearchModeFull}
}

// AllEmbeddingProviders lists providers with an embeddings API.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders lists providers with a chat API.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// DefaultEmbeddingModels maps each embedding provider to the model picked
// when the user leaves the model blank.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels is DefaultEmbeddingModels for chat models.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns vector sizes of known embedding models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
