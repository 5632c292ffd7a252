// Package crawler walks a website breadth-first from a seed URL and
// collects the technologies detected on every page it reaches.
//
// # Architecture
//
// The Spider type owns one crawl at a time. It keeps a FIFO frontier of
// URLs to visit and a set of URLs already processed, and stops when the
// frontier is empty or the page budget is spent. Each page goes through a
// Fetcher, then the extract package and a Classifier, and the resulting
// PageResult is stored in discovery order.
//
// Links are resolved against the seed URL and followed only when the
// resolved string starts with the seed string. This is a subtree rule,
// not a host comparison: with seed "https://example.com/docs",
// "https://example.com/blog" is not followed and neither is
// "http://example.com/docs".
//
// # Failures
//
// A page that cannot be fetched is reported to the Reporter and dropped.
// It is not marked visited, so a later link to it is tried again.
// Context cancellation stops the crawl and returns the pages collected
// so far together with the context error.
//
// # Usage
//
//	result, err := crawler.CrawlWebsite(ctx, "https://example.com", 10)
//
// or, with explicit collaborators:
//
//	spider := crawler.NewSpider(
//		crawler.WithFetcher(fetcher.New(fetcher.WithTimeout(5*time.Second))),
//		crawler.WithMaxPages(20),
//		crawler.WithReporter(crawler.NewLogReporter(logger)),
//	)
//	result, err := spider.Crawl(ctx, "https://example.com")
package crawler
