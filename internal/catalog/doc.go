// Package catalog defines the technology catalog used by the classifier.
//
// A Catalog is an ordered table of categories (e.g. "CDN", "Analytics"),
// each holding detection rules. Rules are tagged variants:
//
//   - Substring: a pattern in the lowercase page source records a label
//   - SubstringWithVersion: like Substring, labelled "keyword(version)"
//   - HeaderContains: a response header value contains a fragment
//   - HeaderPresent: a response header is present
//   - URLContains: the page URL contains a fragment
//
// The built-in table is returned by Default. Configuration files may add
// rules and categories through FileSpec.
//
// # Usage
//
//	cat := catalog.Default()
//	cat, err := cfg.Catalog.Apply(cat)
//	cls := classifier.New(cat)
package catalog
