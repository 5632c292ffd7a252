package config

import (
	"maps"
	"net/url"
	"slices"

	"dario.cat/mergo"
	"github.com/nao1215/stackscan/internal/catalog"
)

// SiteConfig holds request and crawl settings for a single website.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxPages overrides the global page budget for this site.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// clone returns a copy that shares no maps or slices with c.
func (c SiteConfig) clone() SiteConfig {
	c.Headers = maps.Clone(c.Headers)
	c.IgnorePatterns = slices.Clone(c.IgnorePatterns)
	c.FollowPatterns = slices.Clone(c.FollowPatterns)
	return c
}

// File represents the structure of the .stackscan configuration file.
type File struct {
	// Sites maps a seed URL or a host name to its configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Catalog adds categories and rules to the built-in catalog.
	Catalog catalog.FileSpec `yaml:"catalog,omitempty"`
}

// GetSiteConfig returns the configuration for a seed URL.
// The seed itself is looked up first, then its host name. Site values
// override the defaults field by field.
func (cf *File) GetSiteConfig(target string) (SiteConfig, error) {
	if cf == nil {
		return SiteConfig{}, nil
	}

	result := cf.Defaults.clone()

	site, ok := cf.lookup(target)
	if !ok {
		return result, nil
	}

	if err := mergo.Merge(&result, site.clone(), mergo.WithOverride); err != nil {
		return SiteConfig{}, err
	}
	return result, nil
}

func (cf *File) lookup(target string) (SiteConfig, bool) {
	if site, ok := cf.Sites[target]; ok {
		return site, true
	}

	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return SiteConfig{}, false
	}
	site, ok := cf.Sites[u.Hostname()]
	return site, ok
}

// BuildCatalog returns the built-in catalog extended with the
// file's catalog section.
func (cf *File) BuildCatalog() (*catalog.Catalog, error) {
	if cf == nil {
		return catalog.Default(), nil
	}
	return cf.Catalog.Apply(catalog.Default())
}
