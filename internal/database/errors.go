package database

import "errors"

// ErrScanNotFound is returned when no stored scan matches the query.
var ErrScanNotFound = errors.New("scan not found")
