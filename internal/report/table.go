package report

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/stackscan/internal/model"
)

// TableWriter outputs a terminal table with one row per page and
// category. Pages without detections get a single row with "-".
type TableWriter struct {
	baseWriter

	style table.Style
}

// TableWriterOption configures a TableWriter.
type TableWriterOption func(*TableWriter)

// WithTableStyle sets the go-pretty table style.
func WithTableStyle(style table.Style) TableWriterOption {
	return func(w *TableWriter) {
		w.style = style
	}
}

// NewTableWriter creates a TableWriter that outputs to the given writer.
func NewTableWriter(output io.Writer, opts ...TableWriterOption) *TableWriter {
	w := &TableWriter{
		baseWriter: newBaseWriter(output),
		style:      table.StyleRounded,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the table.
func (w *TableWriter) Write(result *model.AggregateResult) (int, error) {
	t := table.NewWriter()
	t.SetStyle(w.style)
	t.AppendHeader(table.Row{"Page", "Category", "Technologies", "Title"})

	if result != nil {
		for _, page := range result.Pages() {
			title, _ := page.Title()
			categories := page.Technologies.Categories()
			if len(categories) == 0 {
				t.AppendRow(table.Row{page.URL, "-", "-", title})
				continue
			}
			for i, category := range categories {
				row := table.Row{"", category, strings.Join(page.Technologies.Labels(category), ", "), ""}
				if i == 0 {
					row[0] = page.URL
					row[3] = title
				}
				t.AppendRow(row)
			}
			t.AppendSeparator()
		}
	}

	return io.WriteString(w.output, t.Render()+"\n")
}
