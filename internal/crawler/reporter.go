package crawler

import "log/slog"

// Reporter receives crawl diagnostics.
// Implementations must not block for long; they run on the crawl loop.
type Reporter interface {
	// Crawling is called immediately before a page is fetched.
	Crawling(pageURL string)

	// Failed is called when a page could not be fetched.
	Failed(pageURL string, err error)
}

// LogReporter writes diagnostics through slog.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a LogReporter; nil uses slog.Default.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Crawling logs the URL about to be fetched.
func (r *LogReporter) Crawling(pageURL string) {
	r.logger.Info("crawling", "url", pageURL)
}

// Failed logs a fetch failure.
func (r *LogReporter) Failed(pageURL string, err error) {
	r.logger.Warn("error fetching page", "url", pageURL, "error", err)
}

// MultiReporter fans diagnostics out to several reporters in order.
func MultiReporter(reporters ...Reporter) Reporter {
	rs := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return multiReporter(rs)
}

type multiReporter []Reporter

func (m multiReporter) Crawling(pageURL string) {
	for _, r := range m {
		r.Crawling(pageURL)
	}
}

func (m multiReporter) Failed(pageURL string, err error) {
	for _, r := range m {
		r.Failed(pageURL, err)
	}
}

type nopReporter struct{}

func (nopReporter) Crawling(string) {}
func (nopReporter) Failed(string, error) {}
