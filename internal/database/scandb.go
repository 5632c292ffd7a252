package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/stackscan/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "stackscan.db"

// ScanDB provides SQLite-based storage for scan results.
type ScanDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *ScanDB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *ScanDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScanDB) createTables() error {
	schema := `
	-- Scans store complete crawl results as JSON
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed_url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		page_count INTEGER NOT NULL,
		technology_count INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_seed ON scans(seed_url);
	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);

	-- Detections store one row per page, category and technology
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id INTEGER NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		page_url TEXT NOT NULL,
		category TEXT NOT NULL,
		technology TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detections_scan ON detections(scan_id);
	CREATE INDEX IF NOT EXISTS idx_detections_technology ON detections(technology);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveScan stores a finished crawl and returns its ID.
func (sdb *ScanDB) SaveScan(ctx context.Context, result *model.AggregateResult) (int64, error) {
	if result == nil {
		return 0, errors.New("failed to save scan: nil result")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO scans (seed_url, page_count, technology_count, result_json)
	VALUES (?, ?, ?, ?)
	`,
		result.SeedURL,
		result.Len(),
		result.TechnologyCount(),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read scan id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO detections (scan_id, page_url, category, technology)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare detection insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range result.Pages() {
		for _, category := range page.Technologies.Categories() {
			for _, label := range page.Technologies.Labels(category) {
				if _, err := stmt.ExecContext(ctx, id, page.URL, category, label); err != nil {
					return 0, fmt.Errorf("failed to save detection: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w", err)
	}

	return id, nil
}

// GetScanByID retrieves a scan result by its database ID.
// It returns ErrScanNotFound when no such scan exists.
func (sdb *ScanDB) GetScanByID(ctx context.Context, id int64) (*model.AggregateResult, error) {
	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, `SELECT result_json FROM scans WHERE id = ?`, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return decodeResult(resultJSON)
}

// GetLatestScan retrieves the most recent scan of seedURL.
// It returns ErrScanNotFound when the site was never scanned.
func (sdb *ScanDB) GetLatestScan(ctx context.Context, seedURL string) (*model.AggregateResult, error) {
	query := `
	SELECT result_json FROM scans
	WHERE seed_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, query, seedURL).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, seedURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}

	return decodeResult(resultJSON)
}

// HasRecentScan checks if seedURL was scanned within the specified duration.
func (sdb *ScanDB) HasRecentScan(ctx context.Context, seedURL string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM scans
	WHERE seed_url = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	if err := sdb.db.QueryRowContext(ctx, query, seedURL, modifier).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check recent scan: %w", err)
	}

	return count > 0, nil
}

// ListScannedSites returns every seed URL with at least one stored scan.
func (sdb *ScanDB) ListScannedSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed_url FROM scans
	ORDER BY seed_url
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// ScanMetadata contains summary information about a stored scan.
// This is used for displaying scan history without loading the full result.
type ScanMetadata struct {
	// ID is the unique identifier of the scan in the database.
	ID int64

	// SeedURL is the URL the crawl started from.
	SeedURL string

	// Timestamp is when the scan was saved.
	Timestamp time.Time

	// PageCount is the number of pages crawled.
	PageCount int

	// TechnologyCount is the number of distinct category/technology pairs.
	TechnologyCount int
}

// GetScanHistoryWithMetadata retrieves scan metadata, newest first.
// An empty seedURL lists scans of every site.
func (sdb *ScanDB) GetScanHistoryWithMetadata(ctx context.Context, seedURL string) ([]ScanMetadata, error) {
	query := `
	SELECT id, seed_url, timestamp, page_count, technology_count
	FROM scans
	`
	args := make([]any, 0, 1)
	if seedURL != "" {
		query += " WHERE seed_url = ?"
		args = append(args, seedURL)
	}
	query += " ORDER BY timestamp DESC, id DESC"

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanMetadata
	for rows.Next() {
		var meta ScanMetadata
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.SeedURL, &timestamp, &meta.PageCount, &meta.TechnologyCount); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)

		results = append(results, meta)
	}

	return results, rows.Err()
}

// Detection is a technology found on a page of a stored scan.
type Detection struct {
	ScanID     int64
	SeedURL    string
	PageURL    string
	Category   string
	Technology string
	Timestamp  time.Time
}

// FindDetections returns detections whose technology label equals
// technology, ignoring case, newest scan first. An empty category
// matches every category.
func (sdb *ScanDB) FindDetections(ctx context.Context, technology, category string) ([]Detection, error) {
	query := `
	SELECT d.scan_id, s.seed_url, d.page_url, d.category, d.technology, s.timestamp
	FROM detections d
	JOIN scans s ON s.id = d.scan_id
	WHERE d.technology = ? COLLATE NOCASE
	`
	args := []any{technology}

	if category != "" {
		query += " AND d.category = ?"
		args = append(args, category)
	}

	query += " ORDER BY s.timestamp DESC, d.scan_id DESC, d.id"

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var results []Detection
	for rows.Next() {
		var d Detection
		var timestamp string

		if err := rows.Scan(&d.ScanID, &d.SeedURL, &d.PageURL, &d.Category, &d.Technology, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		d.Timestamp = parseTimestamp(timestamp)
		results = append(results, d)
	}

	return results, rows.Err()
}

// decodeResult parses a stored result.
func decodeResult(resultJSON string) (*model.AggregateResult, error) {
	var result model.AggregateResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse scan result: %w", err)
	}
	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
