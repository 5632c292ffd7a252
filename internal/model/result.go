package model

import (
	"encoding/json"
	"fmt"
)

// Metadata keys read by the report formatter.
const (
	MetaTitle         = "title"
	MetaOGTitle       = "og:title"
	MetaDescription   = "description"
	MetaOGDescription = "og:description"
)

// PageResult is everything extracted from one successfully fetched page.
// It is created once per page and not modified afterwards.
type PageResult struct {
	// URL is the address the page was fetched from.
	URL string `json:"url"`

	// Meta holds <meta> name/property → content pairs plus "title".
	Meta map[string]string `json:"meta"`

	// Scripts are the src values of <script> elements, in document order.
	Scripts []string `json:"scripts"`

	// Stylesheets are the href values of stylesheet <link> elements.
	Stylesheets []string `json:"stylesheets"`

	// Technologies are the detected technologies by category.
	Technologies Technologies `json:"technologies"`
}

// Title returns the page title, preferring <title> over og:title.
// The second result is false when neither is present.
func (p *PageResult) Title() (string, bool) {
	return p.firstMeta(MetaTitle, MetaOGTitle)
}

// Description returns the page description, preferring the description
// meta tag over og:description.
func (p *PageResult) Description() (string, bool) {
	return p.firstMeta(MetaDescription, MetaOGDescription)
}

// firstMeta returns the value of the first key present in Meta.
func (p *PageResult) firstMeta(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := p.Meta[key]; ok {
			return v, true
		}
	}
	return "", false
}

// AggregateResult holds the page results of one crawl keyed by URL.
// Pages are kept in the order they were crawled.
type AggregateResult struct {
	// SeedURL is the URL the crawl started from.
	SeedURL string

	order []string
	pages map[string]*PageResult
}

// NewAggregateResult returns an empty result for a crawl of seedURL.
func NewAggregateResult(seedURL string) *AggregateResult {
	return &AggregateResult{
		SeedURL: seedURL,
		order:   make([]string, 0),
		pages:   make(map[string]*PageResult),
	}
}

// Add stores page under its URL.
// It returns false, leaving the result unchanged, when the URL is already present.
func (r *AggregateResult) Add(page *PageResult) bool {
	if r.pages == nil {
		r.pages = make(map[string]*PageResult)
	}
	if _, exists := r.pages[page.URL]; exists {
		return false
	}
	r.pages[page.URL] = page
	r.order = append(r.order, page.URL)
	return true
}

// Get returns the page stored under url.
func (r *AggregateResult) Get(url string) (*PageResult, bool) {
	p, ok := r.pages[url]
	return p, ok
}

// URLs returns the page URLs in crawl order.
func (r *AggregateResult) URLs() []string {
	return append([]string(nil), r.order...)
}

// Pages returns the page results in crawl order.
func (r *AggregateResult) Pages() []*PageResult {
	pages := make([]*PageResult, len(r.order))
	for i, url := range r.order {
		pages[i] = r.pages[url]
	}
	return pages
}

// Len returns the number of pages.
func (r *AggregateResult) Len() int {
	return len(r.order)
}

// TechnologyCount returns the number of distinct category/label pairs
// detected across all pages.
func (r *AggregateResult) TechnologyCount() int {
	seen := make(map[string]struct{})
	for _, page := range r.Pages() {
		for _, category := range page.Technologies.Categories() {
			for _, label := range page.Technologies.Labels(category) {
				seen[category+"\x00"+label] = struct{}{}
			}
		}
	}
	return len(seen)
}

// aggregateJSON is the wire form of AggregateResult.
type aggregateJSON struct {
	SeedURL string        `json:"seed_url"`
	Pages   []*PageResult `json:"pages"`
}

// MarshalJSON encodes the result with pages as an ordered array.
func (r *AggregateResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(aggregateJSON{
		SeedURL: r.SeedURL,
		Pages:   r.Pages(),
	})
}

// UnmarshalJSON decodes a result written by MarshalJSON.
func (r *AggregateResult) UnmarshalJSON(data []byte) error {
	var wire aggregateJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	out := NewAggregateResult(wire.SeedURL)
	for _, page := range wire.Pages {
		if page == nil {
			continue
		}
		if !out.Add(page) {
			return fmt.Errorf("aggregate result: duplicate page %q", page.URL)
		}
	}

	*r = *out
	return nil
}
