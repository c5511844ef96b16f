// Command projectrag ingests project files into a local knowledge base and
// retrieves relevant context for queries.
package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/projectrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/projectrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/projectrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/projectrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/projectrag/internal/core/services"
	"github.com/custodia-labs/projectrag/internal/extractors"
	"github.com/custodia-labs/projectrag/internal/logger"
	"github.com/custodia-labs/projectrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/projectrag/internal/walker"
)

// EnvConfigDir overrides the directory holding config.toml.
const EnvConfigDir = "PROJECTRAG_CONFIG_DIR"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (for OPENAI_API_KEY and PROJECTRAG_PROJECT)
	_ = godotenv.Load()

	// Services log while they are built, before cobra parses flags.
	if slices.Contains(os.Args[1:], "--verbose") || slices.Contains(os.Args[1:], "-v") {
		logger.SetVerbose(true)
	}

	configStore, err := file.NewConfigStore(os.Getenv(EnvConfigDir))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening knowledge base: %w", err)
	}
	defer store.Close()
	logger.Debug("knowledge base at %s", store.Path())

	embedding := ai.Initialise(&settings.Embedding)
	defer embedding.Close()

	chunk, err := chunker.FromSettings(settings.Chunking)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	folderWalker := walker.New(walker.WithIgnoreFile(settings.Ingestion.IgnoreFile))
	contentStore := store.ContentStore()
	vectorIndex := store.VectorIndex()

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Ingestion: services.NewIngestionService(
			extractors.NewDefaultRegistry(),
			chunk,
			contentStore,
			vectorIndex,
			embedding.EmbeddingService,
			services.WithWalker(folderWalker),
		),
		Retrieval: services.NewRetrievalService(vectorIndex, embedding.EmbeddingService, settings.Retrieval),
		Knowledge: services.NewKnowledgeService(contentStore),
		Settings:  settingsService,
		Walker:    folderWalker,
	})

	return cli.Execute()
}
