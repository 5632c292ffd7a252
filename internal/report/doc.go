// Package report renders crawl results.
//
// This package contains writers for different output formats:
//   - MarkdownWriter: the default text report, one section per page
//   - JSONWriter: structured JSON output for tool integration
//   - TableWriter: a terminal table with one row per page and category
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed with MultiWriter.
package report
