// Package cli provides the projectrag command line interface.
//
// Commands are thin adapters over the driving ports: they parse flags,
// call a service and print its result. Services are injected by main via
// SetServices before Execute runs.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
	"github.com/custodia-labs/projectrag/internal/logger"
	"github.com/custodia-labs/projectrag/internal/walker"
)

// EnvProject names the environment variable used when --project is not set.
const EnvProject = "PROJECTRAG_PROJECT"

var version = "dev"

var (
	ingestionService driving.IngestionService
	retrievalService driving.RetrievalService
	knowledgeService driving.KnowledgeService
	settingsService  driving.SettingsService
	folderWalker     *walker.Walker
)

var (
	verboseFlag bool
	projectFlag string
)

// errNoProject is returned when neither --project nor PROJECTRAG_PROJECT is set.
var errNoProject = errors.New("project not set: use --project or " + EnvProject)

var rootCmd = &cobra.Command{
	Use:   "projectrag",
	Short: "Project knowledge retrieval",
	Long: `projectrag ingests project files into a per-project knowledge base and
retrieves the passages most relevant to a query.

Files are split into overlapping chunks, embedded and stored locally.
Search and context commands rank chunks by cosine similarity and build
a bounded context block ready to paste into a prompt.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verboseFlag {
			logger.SetVerbose(true)
		}
	},
}

// Services holds the driving ports used by the commands.
type Services struct {
	Ingestion driving.IngestionService
	Retrieval driving.RetrievalService
	Knowledge driving.KnowledgeService
	Settings  driving.SettingsService
	Walker    *walker.Walker
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestionService = s.Ingestion
	retrievalService = s.Retrieval
	knowledgeService = s.Knowledge
	settingsService = s.Settings
	folderWalker = s.Walker
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "P", "", "project ID (defaults to $"+EnvProject+")")
}

// Execute runs the root command, cancelling on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// projectID resolves the project the command operates on.
func projectID() (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}
	if env := os.Getenv(EnvProject); env != "" {
		return env, nil
	}
	return "", errNoProject
}
