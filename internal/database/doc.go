// Package database provides SQLite-based storage for finished scans.
//
// This package implements the ScanDB, which stores:
//   - Scan results as JSON, one row per crawl of a seed URL
//   - One detection row per page, category and technology, so sites
//     can be looked up by the technologies they use
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// database is a single file in the user's data directory.
package database
