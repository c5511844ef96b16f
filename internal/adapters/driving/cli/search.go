package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projectrag/internal/core/domain"
)

// snippetLength is the number of characters of chunk text shown per result.
const snippetLength = 160

var (
	searchLimit int
	searchJSON  bool

	contextMaxChars int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a project's knowledge base",
	Long: `Embeds the query and ranks the project's chunks by cosine similarity.
Only the most recently uploaded version of each file is searched unless
retrieval.include_superseded is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble a bounded context block for a query",
	Long: `Builds a context string from the chunks most similar to the query.
Each block names its source file and similarity; blocks are separated by
"---" and the whole result never exceeds --max-chars characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	contextCmd.Flags().IntVarP(&contextMaxChars, "max-chars", "m", 0, "context budget in characters (0 = configured default)")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	results, err := retrievalService.Search(cmd.Context(), project, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredChunk) error {
	if len(results) == 0 {
		if !retrievalService.Available() {
			cmd.Println("No results: embedding provider not configured.")
			return nil
		}
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := results[i]
		label := r.Filename
		if r.IsTemplate {
			label += " [template]"
		}
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, label, r.ChunkIndex, r.Similarity)
		cmd.Printf("      %s\n", snippet(r.Text))
		cmd.Println()
	}
	return nil
}

func runContext(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	text, err := retrievalService.AssembleContext(cmd.Context(), project, args[0], contextMaxChars)
	if err != nil {
		return fmt.Errorf("context assembly failed: %w", err)
	}
	if text == "" {
		cmd.PrintErrln("No relevant context found.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

// snippet flattens whitespace and truncates text for one-line display.
func snippet(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= snippetLength {
		return flat
	}
	return string(runes[:snippetLength]) + "..."
}
