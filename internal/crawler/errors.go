package crawler

import "errors"

var (
	// ErrInvalidSeed is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrCrawlInProgress is returned when Crawl is called on a Spider
	// that is already crawling.
	ErrCrawlInProgress = errors.New("crawl already in progress")
)
