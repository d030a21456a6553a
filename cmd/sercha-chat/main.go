// Command sercha-chat answers questions from a local sercha index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/services"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	// Services are built before cobra parses flags, so honour --verbose now
	// to see why a provider was skipped.
	logger.SetVerbose(slices.Contains(args, "-v") || slices.Contains(args, "--verbose"))

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator().WithContext(ctx))

	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("Reading settings failed, using defaults: %v", err)
		defaults := domain.DefaultAppSettings()
		settings = &defaults
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	aiServices := ai.Initialise(ctx, settings, prompts)
	defer aiServices.Close()
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}
	if aiServices.FellBack {
		logger.Warn("Search mode %s is not fully available; falling back", settings.Search.Mode)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	// Search only uses the AI services its mode asks for; answering always
	// needs the LLM.
	var embedding driven.EmbeddingService
	if settings.Search.Mode.RequiresEmbedding() {
		embedding = aiServices.EmbeddingService
	}
	var rewriter driven.LLMService
	if settings.Search.Mode.RequiresLLM() {
		rewriter = aiServices.LLMService
	}
	dimension := 0
	if embedding != nil {
		dimension = embedding.Dimensions()
	}
	ix := openIndexes(filepath.Dir(store.Path()), dimension, store.SearchEngine(), store.VectorIndex(), nativeOpeners)
	defer ix.Close()

	search := services.NewSearchService(
		store.DocumentStore(),
		ix.engine,
		ix.vectors,
		embedding,
		rewriter,
	)
	search.SetSourceCatalog(store.SourceCatalog())

	answers := services.NewAnswerService(search, aiServices.LLMService, prompts, settings.Chat)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Search:   search,
		Answer:   answers,
		Settings: settingsService,
		Actions:  services.NewActionService(),
		Prompts:  prompts,
	})
	return cli.Execute(ctx)
}
