// Package log builds the application's slog loggers.
//
// Loggers returned by NewLogger and NewJSONLogger wrap their handler in a
// RedactingHandler, which masks request credentials before they reach
// the output:
//   - attributes whose key names a credential (cookie, authorization, token)
//   - string values that look like bearer, basic or JWT credentials
//   - credential query parameters inside logged URLs
//   - credential entries of logged header maps
//
// Site configurations carry cookies and custom headers, so the masking
// also applies in verbose mode.
package log
