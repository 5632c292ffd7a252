// Package classifier detects web technologies on a fetched page by
// matching the rules of a technology catalog against the page source,
// the page URL and the response headers.
//
// Detection is substring based and best effort: a page that merely
// mentions "react" is reported as using React.
package classifier

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/nao1215/stackscan/internal/catalog"
	"github.com/nao1215/stackscan/internal/htmldoc"
	"github.com/nao1215/stackscan/internal/model"
	"golang.org/x/text/cases"
)

// Classifier applies a catalog to pages.
// It holds no per-page state and is safe for concurrent use.
type Classifier struct {
	catalog *catalog.Catalog

	// versions holds the compiled version pattern of every
	// KindSubstringWithVersion rule, keyed by its pattern.
	versions map[string]*regexp.Regexp
}

// New returns a Classifier for the given catalog.
func New(c *catalog.Catalog) *Classifier {
	cls := &Classifier{
		catalog:  c,
		versions: make(map[string]*regexp.Regexp),
	}

	c.Each(func(_ string, rule catalog.Rule) {
		if rule.Kind != catalog.KindSubstringWithVersion {
			return
		}
		if _, ok := cls.versions[rule.Pattern]; ok {
			return
		}
		cls.versions[rule.Pattern] = versionPattern(rule.Pattern)
	})

	return cls
}

// versionPattern matches keyword, then any non-digits, then a dotted
// version number, capturing the number.
func versionPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(keyword) + `[^\d]*(\d+(?:\.\d+)*)`)
}

// Catalog returns the catalog the classifier was built with.
func (c *Classifier) Catalog() *catalog.Catalog {
	return c.catalog
}

// Classify returns the technologies detected on a page.
// Categories without detections are omitted.
func (c *Classifier) Classify(doc *htmldoc.Document, pageURL string, header http.Header) model.Technologies {
	return c.ClassifyCorpus(doc.Corpus(), pageURL, header)
}

// ClassifyCorpus is Classify for an already serialized, lowercase page source.
func (c *Classifier) ClassifyCorpus(corpus, pageURL string, header http.Header) model.Technologies {
	page := pageInput{
		corpus:  corpus,
		url:     pageURL,
		header:  header,
		folding: cases.Fold(),
	}

	// Every category starts empty so order follows the catalog.
	categories := c.catalog.Categories()
	buckets := make(map[string][]string, len(categories))
	for _, name := range categories {
		buckets[name] = nil
	}

	c.catalog.Each(func(category string, rule catalog.Rule) {
		if label, ok := c.match(rule, &page); ok {
			buckets[category] = append(buckets[category], label)
		}
	})

	var tech model.Technologies
	for _, name := range categories {
		for _, label := range buckets[name] {
			tech.Add(name, label)
		}
	}
	return tech
}

// pageInput is the per-call view of the page being classified.
type pageInput struct {
	corpus  string
	url     string
	header  http.Header
	folding cases.Caser
}

// match evaluates rule against page and returns the label to record.
func (c *Classifier) match(rule catalog.Rule, page *pageInput) (string, bool) {
	var label string

	switch rule.Kind {
	case catalog.KindSubstring:
		if !strings.Contains(page.corpus, rule.Pattern) {
			return "", false
		}
		label = rule.Label

	case catalog.KindSubstringWithVersion:
		if !strings.Contains(page.corpus, rule.Pattern) {
			return "", false
		}
		label = rule.Pattern
		if m := c.versions[rule.Pattern].FindStringSubmatch(page.corpus); m != nil {
			label = rule.Pattern + "(" + m[1] + ")"
		}

	case catalog.KindHeaderContains:
		value, ok := lookupHeader(page.header, rule.Key)
		if !ok {
			return "", false
		}
		if !strings.Contains(page.folding.String(value), page.folding.String(rule.Pattern)) {
			return "", false
		}
		label = rule.Label

	case catalog.KindHeaderPresent:
		if _, ok := lookupHeader(page.header, rule.Key); !ok {
			return "", false
		}
		label = rule.Label

	case catalog.KindURLContains:
		if !strings.Contains(page.url, rule.Pattern) {
			return "", false
		}
		label = rule.Label

	default:
		return "", false
	}

	if rule.Suffix != nil && strings.Contains(page.corpus, rule.Suffix.When) {
		label += rule.Suffix.Text
	}

	return label, true
}

// lookupHeader returns the values of the named header joined with ", ".
// Keys are compared case-insensitively so headers built without
// canonicalization still match.
func lookupHeader(header http.Header, key string) (string, bool) {
	if values, ok := header[http.CanonicalHeaderKey(key)]; ok {
		return strings.Join(values, ", "), true
	}
	for k, values := range header {
		if strings.EqualFold(k, key) {
			return strings.Join(values, ", "), true
		}
	}
	return "", false
}
