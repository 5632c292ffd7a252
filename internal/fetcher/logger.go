package fetcher

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger adapts slog to resty's logger interface so transport
// messages share the application's log handler.
type restyLogger struct {
	logger *slog.Logger
}

func newRestyLogger(logger *slog.Logger) *restyLogger {
	return &restyLogger{logger: logger.With("component", "fetcher")}
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	// Fetch failures are reported through FetchError; keep these at debug
	// level so they are not printed twice.
	l.logger.Debug(trim(format, v...))
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(trim(format, v...))
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(trim(format, v...))
}

func trim(format string, v ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
