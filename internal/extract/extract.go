// Package extract pulls page metadata, script and stylesheet references,
// and links out of a parsed document, and assembles page results.
package extract

import (
	"net/http"
	"strings"

	"github.com/nao1215/stackscan/internal/htmldoc"
	"github.com/nao1215/stackscan/internal/model"
)

// Classifier detects technologies on a page.
type Classifier interface {
	Classify(doc *htmldoc.Document, pageURL string, header http.Header) model.Technologies
}

// Meta returns the metadata of doc.
//
// For every <meta> element carrying name and content, name → content is
// recorded; otherwise property and content (OpenGraph) are used. Later
// duplicates overwrite earlier ones. The text of the first <title> is
// recorded under "title" when it is not empty.
func Meta(doc *htmldoc.Document) map[string]string {
	meta := make(map[string]string)

	for _, tag := range doc.Find("meta") {
		content, ok := tag.Attr("content")
		if !ok {
			continue
		}
		if name, ok := tag.Attr("name"); ok {
			meta[name] = content
		} else if property, ok := tag.Attr("property"); ok {
			meta[property] = content
		}
	}

	if title, ok := doc.First("title"); ok {
		if text := title.Text(); text != "" {
			meta[model.MetaTitle] = text
		}
	}

	return meta
}

// Scripts returns the src attribute of every <script> that has one,
// in document order with duplicates preserved.
func Scripts(doc *htmldoc.Document) []string {
	return attrValues(doc, "script", "src")
}

// Stylesheets returns the href attribute of every <link rel="stylesheet">
// that has one, in document order with duplicates preserved.
func Stylesheets(doc *htmldoc.Document) []string {
	stylesheets := make([]string, 0)
	for _, link := range doc.Find("link[rel]") {
		rel, _ := link.Attr("rel")
		if !hasToken(rel, "stylesheet") {
			continue
		}
		if href, ok := link.Attr("href"); ok {
			stylesheets = append(stylesheets, href)
		}
	}
	return stylesheets
}

// Anchors returns the href attribute of every <a> that has one.
func Anchors(doc *htmldoc.Document) []string {
	return attrValues(doc, "a", "href")
}

// Page builds the result for one fetched page.
func Page(doc *htmldoc.Document, pageURL string, header http.Header, classifier Classifier) *model.PageResult {
	return &model.PageResult{
		URL:          pageURL,
		Meta:         Meta(doc),
		Scripts:      Scripts(doc),
		Stylesheets:  Stylesheets(doc),
		Technologies: classifier.Classify(doc, pageURL, header),
	}
}

// attrValues returns attr of every element matching selector that carries it.
func attrValues(doc *htmldoc.Document, selector, attr string) []string {
	values := make([]string, 0)
	for _, el := range doc.Find(selector) {
		if v, ok := el.Attr(attr); ok {
			values = append(values, v)
		}
	}
	return values
}

// hasToken reports whether the space-separated list contains token.
// rel is a token list, so rel="preload stylesheet" is a stylesheet.
func hasToken(list, token string) bool {
	for _, field := range strings.Fields(list) {
		if field == token {
			return true
		}
	}
	return false
}
