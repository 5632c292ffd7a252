package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/stackscan/internal/crawler"
	"github.com/nao1215/stackscan/internal/database"
	"github.com/spf13/cobra"
)

// historyTimeFormat is the timestamp layout of history listings.
const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List stored scans",
		Long: `History lists scans stored in the database.

Without arguments it lists every scanned seed URL. With a URL it lists the
scans of that seed, newest first. With --tech it lists the pages on which a
technology was detected.

Examples:
  # List all scanned sites
  stackscan history

  # List scans of one site
  stackscan history example.com

  # Find pages that use jQuery
  stackscan history --tech "jquery(3.6.0)"

  # Restrict the search to one category
  stackscan history --tech WordPress --category "Page builders"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Bool("all", false, "List every stored scan of every site")
	cmd.Flags().String("tech", "", "List pages where this technology was detected")
	cmd.Flags().String("category", "", "Restrict --tech to a category")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	tech, err := cmd.Flags().GetString("tech")
	if err != nil {
		return err
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	db, err := database.Open(getDBDir(cmd), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	switch {
	case tech != "":
		return listDetections(ctx, db, out, tech, category)
	case len(args) == 1:
		return listScanHistory(ctx, db, out, crawler.NormalizeSeed(args[0]))
	case all:
		return listScanHistory(ctx, db, out, "")
	default:
		return listScannedSites(ctx, db, out)
	}
}

func listScannedSites(ctx context.Context, db *database.ScanDB, out io.Writer) error {
	sites, err := db.ListScannedSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Fprintln(out, "No scanned sites found in the database.")
		fmt.Fprintln(out, "\nUse 'stackscan scan <url>' to scan a website.")
		return nil
	}

	fmt.Fprintf(out, "Scanned sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  - %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'stackscan history <url>' to see the scans of a site.")
	return nil
}

// listScanHistory lists scans of seedURL, or of every site when it is empty.
func listScanHistory(ctx context.Context, db *database.ScanDB, out io.Writer, seedURL string) error {
	scans, err := db.GetScanHistoryWithMetadata(ctx, seedURL)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(scans) == 0 {
		if seedURL == "" {
			fmt.Fprintln(out, "No scans found in the database.")
		} else {
			fmt.Fprintf(out, "No scan history found for %s\n", seedURL)
		}
		return nil
	}

	t := newListTable(out)
	t.AppendHeader(table.Row{"ID", "Date", "Seed", "Pages", "Technologies"})
	for _, scan := range scans {
		t.AppendRow(table.Row{
			scan.ID,
			scan.Timestamp.Format(historyTimeFormat),
			scan.SeedURL,
			scan.PageCount,
			scan.TechnologyCount,
		})
	}
	t.Render()

	fmt.Fprintln(out, "\nUse 'stackscan show <id>' to display a stored report.")
	return nil
}

func listDetections(ctx context.Context, db *database.ScanDB, out io.Writer, tech, category string) error {
	detections, err := db.FindDetections(ctx, tech, category)
	if err != nil {
		return fmt.Errorf("failed to search detections: %w", err)
	}

	if len(detections) == 0 {
		fmt.Fprintf(out, "No pages found using %s\n", tech)
		return nil
	}

	t := newListTable(out)
	t.AppendHeader(table.Row{"Scan", "Date", "Page", "Category", "Technology"})
	for _, d := range detections {
		t.AppendRow(table.Row{
			d.ScanID,
			d.Timestamp.Format(historyTimeFormat),
			d.PageURL,
			d.Category,
			d.Technology,
		})
	}
	t.Render()
	return nil
}

func newListTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}
