package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/nao1215/stackscan/internal/catalog"
	"github.com/nao1215/stackscan/internal/classifier"
	"github.com/nao1215/stackscan/internal/extract"
	"github.com/nao1215/stackscan/internal/fetcher"
	"github.com/nao1215/stackscan/internal/model"
)

// DefaultMaxPages is the page budget used when none is given.
const DefaultMaxPages = 10

// Fetcher retrieves a single page.
// *fetcher.Fetcher satisfies this interface.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Response, error)
}

// Spider crawls pages below a seed URL.
type Spider struct {
	// fetcher retrieves pages.
	fetcher Fetcher

	// classifier detects technologies on fetched pages.
	classifier extract.Classifier

	// reporter receives progress and failure notifications.
	reporter Reporter

	// maxPages limits the number of pages successfully processed.
	maxPages int

	// ignorePatterns are URL path patterns never enqueued.
	ignorePatterns []string

	// followPatterns, when set, restrict enqueued URLs to matching paths.
	followPatterns []string

	// mutex protects the fields below.
	mutex sync.Mutex

	state     State
	visited   map[string]bool
	pageCount int
	queued    int
	failed    int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithFetcher sets the page fetcher.
func WithFetcher(f Fetcher) SpiderOption {
	return func(s *Spider) {
		s.fetcher = f
	}
}

// WithClassifier sets the technology classifier.
func WithClassifier(c extract.Classifier) SpiderOption {
	return func(s *Spider) {
		s.classifier = c
	}
}

// WithReporter sets the diagnostic sink.
func WithReporter(r Reporter) SpiderOption {
	return func(s *Spider) {
		s.reporter = r
	}
}

// WithMaxPages sets the page budget.
// Values below 1 keep the current budget.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages > 0 {
			s.maxPages = maxPages
		}
	}
}

// WithIgnorePatterns sets URL path patterns to skip.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts crawling to URL paths matching at least
// one pattern. An empty slice allows every path.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// NewSpider returns a Spider. Without options it uses a default
// fetcher, the built-in catalog, a budget of DefaultMaxPages and no
// reporter.
func NewSpider(opts ...SpiderOption) *Spider {
	s := &Spider{
		maxPages: DefaultMaxPages,
		reporter: nopReporter{},
		state:    StateIdle,
		visited:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fetcher == nil {
		s.fetcher = fetcher.New()
	}
	if s.classifier == nil {
		s.classifier = classifier.New(catalog.Default())
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}

	return s
}

// CrawlWebsite crawls seed with a budget of maxPages and returns the
// pages found. Options configure the underlying Spider.
func CrawlWebsite(ctx context.Context, seed string, maxPages int, opts ...SpiderOption) (*model.AggregateResult, error) {
	opts = append(opts, WithMaxPages(maxPages))
	return NewSpider(opts...).Crawl(ctx, seed)
}

// NormalizeSeed trims raw and prefixes "https://" when it does not
// already start with "http".
func NormalizeSeed(raw string) string {
	seed := strings.TrimSpace(raw)
	if seed == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(seed), "http") {
		seed = "https://" + seed
	}
	return seed
}

// Crawl visits pages starting at seed until the frontier is empty or
// the page budget is spent.
//
// Per-page failures never abort the crawl. The returned error is
// non-nil only for an unusable seed, a concurrent Crawl on the same
// Spider, or context cancellation; in the last case the pages crawled
// so far are returned as well.
func (s *Spider) Crawl(ctx context.Context, seed string) (*model.AggregateResult, error) {
	base, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}

	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.setState(StateDone)

	result := model.NewAggregateResult(seed)
	frontier := []string{seed}
	s.addQueued(1)

	for len(frontier) > 0 && s.pagesVisited() < s.maxPages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageURL := frontier[0]
		frontier = frontier[1:]

		if s.isVisited(pageURL) {
			continue
		}

		s.setState(StateFetching)
		s.reporter.Crawling(pageURL)

		resp, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			s.addFailed()
			s.reporter.Failed(pageURL, err)
			continue
		}

		s.setState(StateExtracting)
		page := extract.Page(resp.Document, pageURL, resp.Header, s.classifier)
		result.Add(page)
		s.markVisited(pageURL)

		links := s.discover(base, seed, extract.Anchors(resp.Document))
		frontier = append(frontier, links...)
		s.addQueued(len(links))
	}

	return result, nil
}

// discover resolves hrefs against the seed and returns those to enqueue.
func (s *Spider) discover(base *url.URL, seed string, hrefs []string) []string {
	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		link, ok := resolve(base, href)
		if !ok {
			continue
		}
		if !strings.HasPrefix(link, seed) {
			continue
		}
		if s.isVisited(link) || !s.shouldCrawl(link) {
			continue
		}
		links = append(links, link)
	}
	return links
}

// parseSeed checks that seed is an absolute http(s) URL.
func parseSeed(seed string) (*url.URL, error) {
	if seed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	base, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeed, base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidSeed, seed)
	}
	return base, nil
}

// begin resets per-crawl state and moves the Spider out of Idle.
func (s *Spider) begin() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == StateFetching || s.state == StateExtracting {
		return ErrCrawlInProgress
	}
	s.visited = make(map[string]bool)
	s.pageCount = 0
	s.queued = 0
	s.failed = 0
	s.state = StateFetching
	return nil
}

func (s *Spider) setState(state State) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state = state
}

// isVisited checks if a URL has been processed successfully.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[pageURL]
}

// markVisited records a successfully processed URL.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[pageURL] = true
	s.pageCount++
}

func (s *Spider) pagesVisited() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pageCount
}

func (s *Spider) addQueued(n int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.queued += n
}

func (s *Spider) addFailed() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.failed++
}

// State returns the current crawl state.
func (s *Spider) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Stats returns statistics for the current or last crawl.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesVisited: s.pageCount,
		URLsQueued:   s.queued,
		FetchErrors:  s.failed,
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of pages successfully crawled.
	PagesVisited int

	// URLsQueued is the number of URLs placed on the frontier,
	// counting repeats.
	URLsQueued int

	// FetchErrors is the number of failed fetches.
	FetchErrors int
}
