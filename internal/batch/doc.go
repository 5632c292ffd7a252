// Package batch crawls several seed URLs concurrently.
//
// Each seed gets its own Spider from a factory, so per-site settings and
// crawl state never leak between seeds. A single crawl stays sequential;
// only different seeds run in parallel, bounded by the concurrency limit.
package batch
