package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projectrag/internal/adapters/driving/tui"
)

var (
	filesIncludeTemplates bool
	filesShowText         bool
	projectDeleteForce    bool
	summaryJSON           bool
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage a project's ingested files",
	RunE:  runFilesList,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's files, most recently uploaded first",
	RunE:  runFilesList,
}

var filesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a file version",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesShow,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a file version with its chunks and vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDelete,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete all knowledge of a project",
	RunE:  runProjectDelete,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show aggregate counts for a project",
	RunE:  runSummary,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed a project's files with the configured provider",
	Long: `Embeds the stored chunks of the most recently uploaded version of every
file in the project with the current embedding provider. Files that already
have a vector per chunk for that model are skipped. Run it after changing the
embedding model, or after files were stored text only.`,
	RunE: runReindex,
}

func init() {
	filesListCmd.Flags().BoolVar(&filesIncludeTemplates, "templates", true, "include template files")
	filesShowCmd.Flags().BoolVar(&filesShowText, "text", false, "print the extracted text")
	projectDeleteCmd.Flags().BoolVarP(&projectDeleteForce, "force", "f", false, "skip confirmation")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "output the summary as JSON")

	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesShowCmd)
	filesCmd.AddCommand(filesDeleteCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(reindexCmd)
}

func runFilesList(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	files, err := knowledgeService.ListFiles(cmd.Context(), project, filesIncludeTemplates)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) == 0 {
		cmd.Println("No files ingested.")
		return nil
	}

	cmd.Printf("Files in %s:\n\n", project)
	for i := range files {
		f := files[i]
		name := f.Filename
		if f.IsTemplate {
			name += " [template]"
		}
		cmd.Printf("  %-6d %-40s %-6s %8d bytes  %s\n",
			f.ID, name, f.Kind, f.ByteSize, f.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runFilesShow(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}
	id, err := parseFileID(args[0])
	if err != nil {
		return err
	}

	f, err := knowledgeService.GetFile(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	cmd.Printf("ID:        %d\n", f.ID)
	cmd.Printf("Project:   %s\n", f.ProjectID)
	cmd.Printf("Filename:  %s\n", f.Filename)
	cmd.Printf("Kind:      %s\n", f.Kind)
	cmd.Printf("Template:  %t\n", f.IsTemplate)
	cmd.Printf("Size:      %d bytes\n", f.ByteSize)
	cmd.Printf("Hash:      %s\n", f.ContentHash)
	cmd.Printf("Created:   %s\n", f.CreatedAt.Format("2006-01-02 15:04:05"))
	if filesShowText {
		cmd.Println()
		cmd.Println(f.RawText)
	}
	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	id, err := parseFileID(args[0])
	if err != nil {
		return err
	}

	if err := ingestionService.DeleteFile(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	cmd.Printf("Deleted file %d\n", id)
	return nil
}

func runProjectDelete(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	if !projectDeleteForce {
		cmd.Printf("Delete all files, chunks and vectors of %q? [y/N]: ", project)
		answer := strings.ToLower(readLine(bufio.NewReader(cmd.InOrStdin())))
		if answer != "y" && answer != "yes" {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := ingestionService.DeleteProject(cmd.Context(), project); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	cmd.Printf("Deleted project %s\n", project)
	return nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	summary, err := knowledgeService.Summary(cmd.Context(), project)
	if err != nil {
		return fmt.Errorf("failed to summarise project: %w", err)
	}

	if summaryJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	cmd.Println(tui.RenderSummary(nil, summary))
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	project, err := projectID()
	if err != nil {
		return err
	}

	n, err := ingestionService.Reindex(cmd.Context(), project)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	cmd.Printf("Reindexed %s: %d vectors written\n", project, n)
	return nil
}

func parseFileID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid file ID %q", arg)
	}
	return id, nil
}
