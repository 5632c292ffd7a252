package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nao1215/stackscan/internal/config"
	"github.com/nao1215/stackscan/internal/crawler"
	"github.com/nao1215/stackscan/internal/database"
	"github.com/nao1215/stackscan/internal/model"
	"github.com/nao1215/stackscan/internal/report"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id|url>",
		Short: "Display a stored scan",
		Long: `Show renders a scan stored in the database.

The argument is a scan ID from 'stackscan history', or a seed URL, in
which case the latest scan of that seed is shown.

Examples:
  stackscan show 12
  stackscan show --table example.com
  stackscan show -j 12 > scan.json`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().Bool("table", false, "Output a table")
	cmd.Flags().Bool("summary", false, "Prepend a site-wide summary to the Markdown report")

	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	tableOutput, err := cmd.Flags().GetBool("table")
	if err != nil {
		return err
	}
	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return err
	}
	if jsonOutput && tableOutput {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(getDBDir(cmd), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	result, err := loadScan(commandContext(cmd), db, args[0])
	if err != nil {
		return err
	}

	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case tableOutput:
		writer = report.NewTableWriter(cmd.OutOrStdout())
	default:
		writer = report.NewMarkdownWriter(cmd.OutOrStdout(), report.WithSummary(summary))
	}

	_, err = writer.Write(result)
	return err
}

// loadScan resolves a scan ID or a seed URL to a stored result.
func loadScan(ctx context.Context, db *database.ScanDB, arg string) (*model.AggregateResult, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return db.GetScanByID(ctx, id)
	}
	return db.GetLatestScan(ctx, crawler.NormalizeSeed(arg))
}
