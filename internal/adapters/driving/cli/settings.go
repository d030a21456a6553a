package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// envLLMAPIKey supplies the LLM API key without storing it in the config file.
const envLLMAPIKey = "SERCHA_LLM_API_KEY"

var errNoSettingsService = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `Show and change the search mode, the AI providers and how answers are cited.

Without a subcommand the current settings are printed.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Walks through the search mode, the embedding provider it needs and the LLM provider.`,
	RunE:  runSettingsWizard,
}

var settingsModeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Set search mode",
	Long: `Choose how context documents are retrieved for each question.

  text_only    - keyword search only, no providers needed
  hybrid       - keyword + semantic search (needs an embedding provider)
  llm_assisted - keyword search on an LLM-rewritten query (needs an LLM provider)
  full         - all of the above (needs both)`,
	RunE: runSettingsMode,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Choose the provider that embeds questions for semantic search.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Choose the LLM that writes answers and rewrites queries.

Without flags the provider, model and API key are prompted for. With
--provider nothing is prompted except a missing API key on a terminal;
omitted values use the provider defaults. The key may also come from
SERCHA_LLM_API_KEY, which is never written to the config file.

Examples:
  sercha-chat settings llm --provider ollama --model llama3.2
  sercha-chat settings llm --provider openai --api-key sk-...`,
	RunE: runSettingsLLM,
}

var settingsChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Configure answer generation",
	Long: `Change how answers are generated and cited. Only the flags given are changed.

Examples:
  sercha-chat settings chat --max-documents 5
  sercha-chat settings chat --stop-sequence "" --requests-per-minute 0`,
	RunE: runSettingsChat,
}

var llmFlags struct {
	provider, model, baseURL, apiKey string
}

var chatFlags struct {
	maxDocuments      int
	stopSequence      string
	recentResetTokens int
	languageHint      string
	requestsPerMinute int
}

func init() {
	lf := settingsLLMCmd.Flags()
	lf.StringVar(&llmFlags.provider, "provider", "", "LLM provider (ollama, openai, anthropic)")
	lf.StringVar(&llmFlags.model, "model", "", "model name (default depends on provider)")
	lf.StringVar(&llmFlags.baseURL, "base-url", "", "API endpoint (default depends on provider)")
	lf.StringVar(&llmFlags.apiKey, "api-key", "", "API key for cloud providers")

	cf := settingsChatCmd.Flags()
	cf.IntVar(&chatFlags.maxDocuments, "max-documents", 0, "maximum documents given to the model")
	cf.StringVar(&chatFlags.stopSequence, "stop-sequence", "", "truncate answers at this text (empty disables)")
	cf.IntVar(&chatFlags.recentResetTokens, "recent-reset-tokens", 0, "tokens without a citation before a document may be cited again")
	cf.StringVar(&chatFlags.languageHint, "language-hint", "", "language added to untagged code fences (empty disables)")
	cf.IntVar(&chatFlags.requestsPerMinute, "requests-per-minute", 0, "LLM request limit (0 = unlimited)")

	settingsCmd.AddCommand(settingsShowCmd, settingsWizardCmd, settingsModeCmd,
		settingsEmbeddingCmd, settingsLLMCmd, settingsChatCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Settings")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Search]")
	fmt.Fprintf(out, "  Mode: %s\n\n", settings.Search.Mode.Description())

	e := settings.Embedding
	printProvider(out, "Embedding", e.Provider, e.Model, e.BaseURL, e.APIKey, e.IsConfigured())
	l := settings.LLM
	printProvider(out, "LLM", l.Provider, l.Model, l.BaseURL, l.APIKey, l.IsConfigured())

	c := settings.Chat
	rate := "unlimited"
	if c.RequestsPerMinute > 0 {
		rate = fmt.Sprintf("%d requests/minute", c.RequestsPerMinute)
	}
	fmt.Fprintln(out, "[Chat]")
	fmt.Fprintf(out, "  Max Documents: %d\n", c.MaxDocuments)
	fmt.Fprintf(out, "  Stop Sequence: %s\n", orNone(strconv.Quote(c.StopSequence), c.StopSequence))
	fmt.Fprintf(out, "  Citation Reset: %d tokens\n", c.RecentResetTokens)
	fmt.Fprintf(out, "  Code Language Hint: %s\n", orNone(c.LanguageHint, c.LanguageHint))
	fmt.Fprintf(out, "  Rate Limit: %s\n\n", rate)

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		fmt.Fprintln(out, "Run 'sercha-chat settings wizard' to fix configuration issues.")
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func printProvider(out io.Writer, section string, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	fmt.Fprintf(out, "[%s]\n", section)
	fmt.Fprintf(out, "  Provider: %s\n", p.Description())
	fmt.Fprintf(out, "  Model: %s\n", model)
	switch {
	case p.IsLocal():
		fmt.Fprintf(out, "  Base URL: %s\n", baseURL)
	case p.RequiresAPIKey() && apiKey == "":
		fmt.Fprintln(out, "  API Key: (not set)")
	case p.RequiresAPIKey():
		fmt.Fprintf(out, "  API Key: %s\n", maskAPIKey(apiKey))
	}
	status := "not configured"
	if configured {
		status = "configured"
	}
	fmt.Fprintf(out, "  Status: %s\n\n", status)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	p := newPrompter(cmd)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Sercha Chat Settings Wizard")
	fmt.Fprintln(out)

	modes := domain.AllSearchModes()
	mode := modes[p.choose("Step 1: search mode", describeModes(modes), 1)]
	if err := settingsService.SetSearchMode(mode); err != nil {
		return fmt.Errorf("failed to set search mode: %w", err)
	}
	fmt.Fprintf(out, "Search mode: %s\n\n", mode.Description())

	if mode.RequiresEmbedding() {
		fmt.Fprintln(out, "Step 2: embedding provider (needed for semantic search)")
		if err := configureEmbeddingProvider(p); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, "Step 2: embedding provider skipped, not needed for this mode")
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Step 3: LLM provider (writes the answers)")
	if err := configureLLMProvider(p); err != nil {
		return err
	}

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		return nil
	}
	fmt.Fprintln(out, "All settings are valid and saved.")
	return nil
}

func runSettingsMode(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	p := newPrompter(cmd)

	modes := domain.AllSearchModes()
	idx := p.choose("Select Search Mode", describeModes(modes), 0)
	if idx < 0 {
		return errors.New("invalid selection")
	}
	mode := modes[idx]
	if err := settingsService.SetSearchMode(mode); err != nil {
		return fmt.Errorf("failed to set search mode: %w", err)
	}
	fmt.Fprintf(p.out, "Search mode set to: %s\n", mode.Description())

	if settings, err := settingsService.Get(); err == nil {
		if mode.RequiresEmbedding() && !settings.Embedding.IsConfigured() {
			fmt.Fprintln(p.out, "\nNote: this mode needs an embedding provider. Run 'sercha-chat settings embedding'.")
		}
		if mode.RequiresLLM() && !settings.LLM.IsConfigured() {
			fmt.Fprintln(p.out, "\nNote: this mode needs an LLM provider. Run 'sercha-chat settings llm'.")
		}
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	return configureEmbeddingProvider(newPrompter(cmd))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	p := newPrompter(cmd)
	if llmFlags.provider == "" {
		return configureLLMProvider(p)
	}

	provider := domain.AIProvider(llmFlags.provider)
	if !provider.IsValid() {
		return fmt.Errorf("unknown LLM provider %q", llmFlags.provider)
	}
	apiKey := llmFlags.apiKey
	if apiKey == "" && provider.RequiresAPIKey() && os.Getenv(envLLMAPIKey) == "" && p.secret != nil {
		apiKey = p.askSecret("Enter API key")
	}
	return applyLLMProvider(p, provider, llmFlags.model, llmFlags.baseURL, apiKey)
}

func runSettingsChat(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettingsService
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	chat := settings.Chat
	flags := cmd.Flags()
	updates := []struct {
		flag  string
		apply func()
	}{
		{"max-documents", func() { chat.MaxDocuments = chatFlags.maxDocuments }},
		{"stop-sequence", func() { chat.StopSequence = chatFlags.stopSequence }},
		{"recent-reset-tokens", func() { chat.RecentResetTokens = chatFlags.recentResetTokens }},
		{"language-hint", func() { chat.LanguageHint = chatFlags.languageHint }},
		{"requests-per-minute", func() { chat.RequestsPerMinute = chatFlags.requestsPerMinute }},
	}
	changed := false
	for _, u := range updates {
		if flags.Changed(u.flag) {
			u.apply()
			changed = true
		}
	}
	if !changed {
		return errors.New("no chat settings given; see 'sercha-chat settings chat --help'")
	}

	if err := settingsService.SetChat(chat); err != nil {
		return fmt.Errorf("failed to update chat settings: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Chat settings updated.")
	return nil
}

func configureEmbeddingProvider(p *prompter) error {
	providers := domain.AllEmbeddingProviders()
	provider := providers[p.choose("Select Embedding Provider", describeProviders(providers), 1)]
	model := p.ask("Model", domain.DefaultEmbeddingModels()[provider])

	var apiKey string
	if provider.RequiresAPIKey() {
		if apiKey = p.askSecret("Enter API key"); apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	if err := validateProvider(p, settingsService.ValidateEmbeddingConfig); err != nil {
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	fmt.Fprintf(p.out, "Embedding provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

func configureLLMProvider(p *prompter) error {
	providers := domain.AllLLMProviders()
	provider := providers[p.choose("Select LLM Provider", describeProviders(providers), 1)]
	model := p.ask("Model", domain.DefaultLLMModels()[provider])

	var apiKey string
	if provider.RequiresAPIKey() && os.Getenv(envLLMAPIKey) == "" {
		if apiKey = p.askSecret("Enter API key"); apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}
	return applyLLMProvider(p, provider, model, "", apiKey)
}

// applyLLMProvider saves the LLM settings and pings the provider.
func applyLLMProvider(p *prompter, provider domain.AIProvider, model, baseURL, apiKey string) error {
	if err := settingsService.SetLLM(provider, model, baseURL, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	if err := validateProvider(p, settingsService.ValidateLLMConfig); err != nil {
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	fmt.Fprintf(p.out, "LLM provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

func validateProvider(p *prompter, validate func() error) error {
	fmt.Fprint(p.out, "Validating configuration... ")
	if err := validate(); err != nil {
		fmt.Fprintf(p.out, "FAILED: %v\n", err)
		return err
	}
	fmt.Fprintln(p.out, "OK")
	return nil
}

func describeModes(modes []domain.SearchMode) []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = m.Description()
	}
	return out
}

func describeProviders(providers []domain.AIProvider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.Description()
	}
	return out
}
