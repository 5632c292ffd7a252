// Package htmldoc provides the parsed HTML document model shared by the
// extractor and the classifier.
//
// Elements expose attributes through a present/absent accessor so callers
// can tell a missing attribute from an empty one.
package htmldoc

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page.
// It is read-only after parsing and safe for concurrent readers.
type Document struct {
	doc *goquery.Document

	corpusOnce sync.Once
	corpus     string
}

// Parse parses r as HTML.
// Malformed markup yields a best-effort tree rather than an error; an error
// is only returned when r cannot be read.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find returns every element matching the CSS selector, in document order.
func (d *Document) Find(selector string) []Element {
	sel := d.doc.Find(selector)
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, Element{sel: s})
	})
	return elements
}

// First returns the first element matching the selector.
// The second result is false when nothing matches.
func (d *Document) First(selector string) (Element, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return Element{}, false
	}
	return Element{sel: sel}, true
}

// Corpus returns the serialized document in lowercase.
// It is rendered once and cached.
func (d *Document) Corpus() string {
	d.corpusOnce.Do(func() {
		var buf bytes.Buffer
		for _, n := range d.doc.Nodes {
			// Render only fails on writer errors; bytes.Buffer never returns one.
			_ = html.Render(&buf, n) //nolint:errcheck
		}
		d.corpus = strings.ToLower(buf.String())
	})
	return d.corpus
}

// Element is a single HTML element.
type Element struct {
	sel *goquery.Selection
}

// Attr returns the value of the named attribute.
// The second result is false when the element does not carry it.
func (e Element) Attr(name string) (string, bool) {
	if e.sel == nil {
		return "", false
	}
	return e.sel.Attr(name)
}

// HasAttr reports whether the element carries the named attribute.
func (e Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// Text returns the combined text of the element and its descendants.
func (e Element) Text() string {
	if e.sel == nil {
		return ""
	}
	return e.sel.Text()
}

// Tag returns the element's tag name in lowercase.
func (e Element) Tag() string {
	if e.sel == nil {
		return ""
	}
	return goquery.NodeName(e.sel)
}
