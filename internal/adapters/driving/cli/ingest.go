package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/projectrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
	"github.com/custodia-labs/projectrag/internal/watcher"
)

var (
	ingestTemplate bool
	ingestKind     string
	ingestWatch    bool

	addTextKind     string
	addTextTemplate bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a file or folder into a project",
	Long: `Extracts text from a file, or from every eligible file below a folder,
and stores it as chunks and vectors in the project's knowledge base.

Hidden files and directories are skipped, as are paths matched by a
.ragignore file. Re-ingesting identical content is reported as unchanged.

Use --watch with a folder to keep ingesting files as they change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var addTextCmd = &cobra.Command{
	Use:   "add-text [filename] [text]",
	Short: "Ingest text under a filename",
	Long: `Stores text that was already extracted elsewhere as a file version.
When text is omitted it is read from standard input.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAddText,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestTemplate, "template", "t", false, "mark the ingested files as templates")
	ingestCmd.Flags().StringVarP(&ingestKind, "kind", "k", "", "declared kind for a single file (defaults to its extension)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep ingesting a folder's files as they change")
	addTextCmd.Flags().StringVarP(&addTextKind, "kind", "k", "", "declared kind (defaults to txt)")
	addTextCmd.Flags().BoolVarP(&addTextTemplate, "template", "t", false, "mark the text as a template")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(addTextCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !info.IsDir() {
		if ingestWatch {
			return errors.New("--watch requires a folder")
		}
		return ingestSingleFile(cmd, project, path)
	}

	req := domain.FolderRequest{ProjectID: project, Path: path, IsTemplate: ingestTemplate}
	outcome, err := ingestFolder(cmd, req)
	if err != nil {
		return err
	}
	if outcome.Err != "" {
		return errors.New(outcome.Err)
	}

	if ingestWatch {
		return watchFolder(cmd, req)
	}
	if outcome.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", outcome.Failed, outcome.Total)
	}
	return nil
}

func ingestSingleFile(cmd *cobra.Command, project, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	kind := ingestKind
	if kind == "" {
		kind = domain.KindFromFilename(path)
	}

	outcome := ingestionService.IngestFile(cmd.Context(), domain.FileUpload{
		ProjectID:  project,
		Filename:   filepath.Base(path),
		Content:    content,
		Kind:       kind,
		IsTemplate: ingestTemplate,
	})
	return printOutcome(cmd, outcome)
}

// ingestFolder shows the progress view on a terminal and plain lines otherwise.
func ingestFolder(cmd *cobra.Command, req domain.FolderRequest) (domain.FolderOutcome, error) {
	run := func(ctx context.Context, progress driving.ProgressFunc) domain.FolderOutcome {
		return ingestionService.IngestFolder(ctx, req, progress)
	}

	if isTerminal(cmd.OutOrStdout()) {
		outcome, err := tui.RunFolderIngest(cmd.Context(), req.Path, run, cmd.OutOrStdout())
		if err != nil && !errors.Is(err, tui.ErrInterrupted) {
			return outcome, err
		}
		return outcome, nil
	}

	outcome := run(cmd.Context(), func(done, total int, o domain.IngestOutcome) {
		cmd.Printf("[%d/%d] %s\n", done, total, tui.OutcomeLine(nil, o))
	})
	cmd.Println(tui.RenderFolderOutcome(nil, outcome))
	return outcome, nil
}

func watchFolder(cmd *cobra.Command, req domain.FolderRequest) error {
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", req.Path)

	w := watcher.New(req.Path, func(ctx context.Context, path string) {
		cmd.Println(tui.OutcomeLine(nil, ingestionService.IngestPath(ctx, req, path)))
	}, watcher.WithWalker(folderWalker))

	if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func runAddText(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	var text string
	if len(args) == 2 {
		text = args[1]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}
		text = string(data)
	}

	outcome := ingestionService.IngestText(cmd.Context(), domain.TextUpload{
		ProjectID:  project,
		Filename:   args[0],
		Text:       strings.TrimRight(text, "\n"),
		Kind:       addTextKind,
		IsTemplate: addTextTemplate,
	})
	return printOutcome(cmd, outcome)
}

func printOutcome(cmd *cobra.Command, o domain.IngestOutcome) error {
	cmd.Println(tui.OutcomeLine(nil, o))
	if o.Status == domain.IngestFailed {
		return fmt.Errorf("ingest failed: %s", o.Reason)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
