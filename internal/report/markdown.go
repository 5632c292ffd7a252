package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/stackscan/internal/model"
)

// MarkdownWriter outputs the per-page technology report.
//
// Each page renders as:
//
//	**Website : <url>**
//	**Technology stack**
//	<category>
//
//	- <label>
//
//	**Metadata**
//
//	Title
//	<title>
//
//	Description
//	<description>
//
//	---
//
// Categories without detections are omitted, as are the Title and
// Description blocks when the page has neither the plain nor the
// Open Graph variant.
type MarkdownWriter struct {
	baseWriter

	// summary prepends a site-wide table of detected technologies.
	summary bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithSummary prepends a site-wide summary table to the report.
func WithSummary(enabled bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.summary = enabled
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in discovery order.
func (w *MarkdownWriter) Write(result *model.AggregateResult) (int, error) {
	if result == nil || result.Len() == 0 {
		return 0, nil
	}

	md := markdown.NewMarkdown(w.output)

	if w.summary {
		w.writeSummary(md, result)
	}

	for _, page := range result.Pages() {
		w.writePage(md, page)
	}

	return len(md.String()), md.Build()
}

// writeSummary writes the site-wide technology table.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.AggregateResult) {
	summary := Summarize(result)

	md.H1("Website analysis: " + result.SeedURL)
	md.PlainText("")
	md.PlainText("Pages crawled: " + strconv.Itoa(result.Len()))
	md.PlainText("")

	if summary.Len() == 0 {
		md.PlainText("No technologies detected.")
		md.PlainText("")
		md.HorizontalRule()
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, summary.Len())
	for _, category := range summary.Categories() {
		rows = append(rows, []string{category, strings.Join(summary.Labels(category), ", ")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Technologies"},
		Rows:   rows,
	})
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("")
}

// writePage writes one page section.
func (w *MarkdownWriter) writePage(md *markdown.Markdown, page *model.PageResult) {
	md.PlainText("**Website : " + page.URL + "**")
	md.PlainText("**Technology stack**")

	for _, category := range page.Technologies.Categories() {
		labels := page.Technologies.Labels(category)
		if len(labels) == 0 {
			continue
		}
		md.PlainText(category)
		md.PlainText("")
		md.BulletList(labels...)
		md.PlainText("")
	}

	md.PlainText("**Metadata**")
	md.PlainText("")

	if title, ok := page.Title(); ok {
		md.PlainText("Title")
		md.PlainText(title)
		md.PlainText("")
	}
	if description, ok := page.Description(); ok {
		md.PlainText("Description")
		md.PlainText(description)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
}
