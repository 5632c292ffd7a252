package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/stackscan/internal/catalog"
	"github.com/nao1215/stackscan/internal/fetcher"
	"github.com/nao1215/stackscan/internal/htmldoc"
)

// fakeFetcher serves pages from memory and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	headers  map[string]http.Header
	requests []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, headers: map[string]http.Header{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*fetcher.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, pageURL)

	body, ok := f.pages[pageURL]
	if !ok {
		return nil, &fetcher.FetchError{
			URL:        pageURL,
			StatusCode: http.StatusNotFound,
			Err:        fmt.Errorf("%w: 404 Not Found", fetcher.ErrHTTPStatus),
		}
	}
	doc, err := htmldoc.ParseString(body)
	if err != nil {
		return nil, err
	}
	header := f.headers[pageURL]
	if header == nil {
		header = http.Header{}
	}
	return &fetcher.Response{URL: pageURL, StatusCode: http.StatusOK, Header: header, Document: doc}, nil
}

func (f *fakeFetcher) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// recordingReporter captures diagnostics.
type recordingReporter struct {
	mu       sync.Mutex
	crawling []string
	failed   []string
}

func (r *recordingReporter) Crawling(pageURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crawling = append(r.crawling, pageURL)
}

func (r *recordingReporter) Failed(pageURL string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, pageURL)
}

// TestSpiderCrawl tests frontier handling and the page budget.
func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("follows links in discovery order", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com":        `<a href="/a">a</a><a href="/b">b</a>`,
			"https://example.com/a":      `<a href="/a/deep">deep</a>`,
			"https://example.com/b":      `<p>leaf</p>`,
			"https://example.com/a/deep": `<p>leaf</p>`,
		})
		spider := NewSpider(WithFetcher(f), WithMaxPages(10))

		result, err := spider.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"https://example.com",
			"https://example.com/a",
			"https://example.com/b",
			"https://example.com/a/deep",
		}
		if diff := cmp.Diff(want, result.URLs()); diff != "" {
			t.Errorf("URL order mismatch (-want +got):\n%s", diff)
		}
		if spider.State() != StateDone {
			t.Errorf("expected state done, got %s", spider.State())
		}
	})

	t.Run("max pages of one yields only the seed", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com":   `<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a>`,
			"https://example.com/a": `<p>a</p>`,
			"https://example.com/b": `<p>b</p>`,
			"https://example.com/c": `<p>c</p>`,
		})

		result, err := CrawlWebsite(context.Background(), "https://example.com", 1, WithFetcher(f))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"https://example.com"}, result.URLs()); diff != "" {
			t.Errorf("URLs mismatch (-want +got):\n%s", diff)
		}
		if got := len(f.Requests()); got != 1 {
			t.Errorf("expected 1 request, got %d", got)
		}
	})

	t.Run("cycle is visited once per page", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com/a":   `<a href="/a/b">b</a>`,
			"https://example.com/a/b": `<a href="/a">a</a>`,
		})
		spider := NewSpider(WithFetcher(f), WithMaxPages(2))

		result, err := spider.Crawl(context.Background(), "https://example.com/a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com/a", "https://example.com/a/b"}
		if diff := cmp.Diff(want, result.URLs()); diff != "" {
			t.Errorf("URLs mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, f.Requests()); diff != "" {
			t.Errorf("requests mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cycle under a larger budget ends when the frontier drains", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com/a":   `<a href="/a/b">b</a><a href="/a">self</a>`,
			"https://example.com/a/b": `<a href="/a">a</a><a href="/a/b">self</a>`,
		})
		spider := NewSpider(WithFetcher(f), WithMaxPages(50))

		result, err := spider.Crawl(context.Background(), "https://example.com/a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Len() != 2 {
			t.Errorf("expected 2 pages, got %d", result.Len())
		}
		if got := len(f.Requests()); got != 2 {
			t.Errorf("expected 2 requests, got %d: %v", got, f.Requests())
		}
		if stats := spider.Stats(); stats.PagesVisited != 2 {
			t.Errorf("expected 2 pages visited, got %d", stats.PagesVisited)
		}
	})

	t.Run("duplicate entries in the frontier do not consume budget", func(t *testing.T) {
		t.Parallel()

		// The seed lists /a twice, so /a sits in the frontier twice.
		f := newFakeFetcher(map[string]string{
			"https://example.com/":  `<a href="/a">1</a><a href="/a">2</a><a href="/b">b</a>`,
			"https://example.com/a": `<p>a</p>`,
			"https://example.com/b": `<p>b</p>`,
		})
		spider := NewSpider(WithFetcher(f), WithMaxPages(3))

		result, err := spider.Crawl(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com/", "https://example.com/a", "https://example.com/b"}
		if diff := cmp.Diff(want, result.URLs()); diff != "" {
			t.Errorf("URLs mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestSpiderContainment tests the literal seed-prefix rule.
func TestSpiderContainment(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]string{
		"https://example.com/docs": `
			<a href="/docs/intro">inside</a>
			<a href="/blog">sibling path</a>
			<a href="http://example.com/docs/plain">other scheme</a>
			<a href="https://www.example.com/docs/www">other host</a>
			<a href="https://other.org/docs">external</a>
			<a href="mailto:hi@example.com">mail</a>
			<a href="javascript:void(0)">js</a>
			<a href="">empty</a>
			<a>no href</a>`,
		"https://example.com/docs/intro": `<p>intro</p>`,
	})
	spider := NewSpider(WithFetcher(f), WithMaxPages(20))

	result, err := spider.Crawl(context.Background(), "https://example.com/docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, u := range result.URLs() {
		if !strings.HasPrefix(u, "https://example.com/docs") {
			t.Errorf("result contains URL outside the seed prefix: %s", u)
		}
	}
	for _, u := range f.Requests() {
		if !strings.HasPrefix(u, "https://example.com/docs") {
			t.Errorf("fetched URL outside the seed prefix: %s", u)
		}
	}
	want := []string{"https://example.com/docs", "https://example.com/docs/intro"}
	if diff := cmp.Diff(want, result.URLs()); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}
}

// TestSpiderResolvesAgainstSeed tests that relative links use the seed
// URL as base, not the page they appear on.
func TestSpiderResolvesAgainstSeed(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]string{
		"https://example.com/":         `<a href="section/">section</a>`,
		"https://example.com/section/": `<a href="page">relative</a>`,
		"https://example.com/page":     `<p>resolved against the seed</p>`,
	})
	spider := NewSpider(WithFetcher(f))

	result, err := spider.Crawl(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.Get("https://example.com/page"); !ok {
		t.Errorf("expected /page to be crawled, got %v", result.URLs())
	}
	if _, ok := result.Get("https://example.com/section/page"); ok {
		t.Error("relative link was resolved against the current page")
	}
}

// TestSpiderFailures tests handling of failed fetches.
func TestSpiderFailures(t *testing.T) {
	t.Parallel()

	t.Run("failed pages are skipped and reported", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com":    `<a href="/missing">m</a><a href="/ok">ok</a>`,
			"https://example.com/ok": `<p>fine</p>`,
		})
		reporter := &recordingReporter{}
		spider := NewSpider(WithFetcher(f), WithReporter(reporter))

		result, err := spider.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := result.Get("https://example.com/missing"); ok {
			t.Error("failed page should not be in the result")
		}
		if result.Len() != 2 {
			t.Errorf("expected 2 pages, got %d", result.Len())
		}
		if diff := cmp.Diff([]string{"https://example.com/missing"}, reporter.failed); diff != "" {
			t.Errorf("failed mismatch (-want +got):\n%s", diff)
		}
		wantCrawling := []string{"https://example.com", "https://example.com/missing", "https://example.com/ok"}
		if diff := cmp.Diff(wantCrawling, reporter.crawling); diff != "" {
			t.Errorf("crawling mismatch (-want +got):\n%s", diff)
		}
		if stats := spider.Stats(); stats.FetchErrors != 1 {
			t.Errorf("expected 1 fetch error, got %d", stats.FetchErrors)
		}
	})

	t.Run("failed pages do not consume budget", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com":   `<a href="/x">x</a><a href="/y">y</a><a href="/a">a</a>`,
			"https://example.com/a": `<p>a</p>`,
		})
		spider := NewSpider(WithFetcher(f), WithMaxPages(2))

		result, err := spider.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com", "https://example.com/a"}
		if diff := cmp.Diff(want, result.URLs()); diff != "" {
			t.Errorf("URLs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failed pages are retried when linked again", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]string{
			"https://example.com":   `<a href="/gone">1</a><a href="/a">a</a>`,
			"https://example.com/a": `<a href="/gone">2</a>`,
		})
		spider := NewSpider(WithFetcher(f))

		if _, err := spider.Crawl(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var attempts int
		for _, u := range f.Requests() {
			if u == "https://example.com/gone" {
				attempts++
			}
		}
		if attempts != 2 {
			t.Errorf("expected 2 attempts at the failing page, got %d", attempts)
		}
	})

	t.Run("failed seed yields an empty result", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(WithFetcher(newFakeFetcher(nil)))
		result, err := spider.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Len() != 0 {
			t.Errorf("expected empty result, got %v", result.URLs())
		}
	})
}

// TestSpiderClassifies tests that stored pages carry extraction results.
func TestSpiderClassifies(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]string{
		"https://example.com": `<html><head><title>Blog</title>
			<meta name="description" content="A blog">
			<script src="/wp-includes/js/jquery/jquery.min.js"></script>
			<link rel="stylesheet" href="/wp-content/themes/t/style.css">
			</head><body>wordpress</body></html>`,
	})
	f.headers["https://example.com"] = http.Header{"Server": []string{"cloudflare"}}

	result, err := CrawlWebsite(context.Background(), "https://example.com", 1, WithFetcher(f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, ok := result.Get("https://example.com")
	if !ok {
		t.Fatal("seed page missing")
	}
	if title, _ := page.Title(); title != "Blog" {
		t.Errorf("expected title Blog, got %q", title)
	}
	if desc, _ := page.Description(); desc != "A blog" {
		t.Errorf("expected description, got %q", desc)
	}
	if diff := cmp.Diff([]string{"/wp-includes/js/jquery/jquery.min.js"}, page.Scripts); diff != "" {
		t.Errorf("scripts mismatch (-want +got):\n%s", diff)
	}
	if !page.Technologies.Has(catalog.PageBuilders, "WordPress") {
		t.Errorf("expected WordPress, got %v", page.Technologies.Map())
	}
	if !page.Technologies.Has(catalog.CDN, "Cloudflare") {
		t.Errorf("expected Cloudflare, got %v", page.Technologies.Map())
	}
}

// TestSpiderPatterns tests ignore and follow patterns.
func TestSpiderPatterns(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/":                 `<a href="/admin/login">admin</a><a href="/docs/a">docs</a><a href="/files/report.pdf">pdf</a>`,
		"https://example.com/admin/login":      `<p>admin</p>`,
		"https://example.com/docs/a":           `<p>docs</p>`,
		"https://example.com/files/report.pdf": `<p>pdf</p>`,
	}

	t.Run("ignore", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(WithFetcher(newFakeFetcher(pages)), WithIgnorePatterns([]string{"/admin/*", "*.pdf"}))
		result, err := spider.Crawl(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com/", "https://example.com/docs/a"}
		if diff := cmp.Diff(want, result.URLs()); diff != "" {
			t.Errorf("URLs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("follow", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(WithFetcher(newFakeFetcher(pages)), WithFollowPatterns([]string{"/docs/*"}))
		result, err := spider.Crawl(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://example.com/", "https://example.com/docs/a"}
		if diff := cmp.Diff(want, result.URLs()); diff != "" {
			t.Errorf("URLs mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestMatchPattern tests glob matching of URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/admin/*", "/admin/users", true},
		{"/admin/*", "/admin", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/file.pdf", true},
		{"*.pdf", "/docs/file.html", false},
		{"/api/v?", "/api/v1", true},
		{"logout*", "/account/logout-now", true},
		{"/exact", "/exact", true},
		{"[", "/broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestSpiderSeedValidation tests rejection of unusable seeds.
func TestSpiderSeedValidation(t *testing.T) {
	t.Parallel()

	for _, seed := range []string{"", "example.com", "ftp://example.com", "https://", "http://[::1"} {
		t.Run(seed, func(t *testing.T) {
			t.Parallel()

			f := newFakeFetcher(nil)
			_, err := NewSpider(WithFetcher(f)).Crawl(context.Background(), seed)
			if !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("expected ErrInvalidSeed, got %v", err)
			}
			if len(f.Requests()) != 0 {
				t.Error("no request should be made for an invalid seed")
			}
		})
	}
}

// TestSpiderCancellation tests that a canceled context stops the crawl.
func TestSpiderCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := newFakeFetcher(map[string]string{
		"https://example.com":   `<a href="/a">a</a>`,
		"https://example.com/a": `<p>a</p>`,
	})
	reporter := &cancelingReporter{cancel: cancel, after: "https://example.com"}
	spider := NewSpider(WithFetcher(f), WithReporter(reporter))

	result, err := spider.Crawl(ctx, "https://example.com")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Len() != 1 {
		t.Fatalf("expected the seed page as partial result, got %v", result)
	}
	if spider.State() != StateDone {
		t.Errorf("expected state done, got %s", spider.State())
	}
}

// cancelingReporter cancels the crawl once the given page was requested.
type cancelingReporter struct {
	cancel context.CancelFunc
	after  string
	seen   bool
}

func (r *cancelingReporter) Crawling(pageURL string) {
	if r.seen {
		return
	}
	if pageURL == r.after {
		r.seen = true
		defer r.cancel()
	}
}

func (r *cancelingReporter) Failed(string, error) {}

// TestSpiderReuse tests that each Crawl starts from fresh state.
func TestSpiderReuse(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]string{"https://example.com": `<p>x</p>`})
	spider := NewSpider(WithFetcher(f))

	if spider.State() != StateIdle {
		t.Errorf("expected idle, got %s", spider.State())
	}
	for i := 0; i < 2; i++ {
		result, err := spider.Crawl(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("crawl %d: unexpected error: %v", i, err)
		}
		if result.Len() != 1 {
			t.Errorf("crawl %d: expected 1 page, got %d", i, result.Len())
		}
	}
	if got := len(f.Requests()); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

// TestNormalizeSeed tests scheme defaulting.
func TestNormalizeSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/docs  ", "https://example.com/docs"},
		{"http://example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeSeed(tt.in); got != tt.want {
				t.Errorf("NormalizeSeed(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestStateString tests State names.
func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateIdle:       "idle",
		StateFetching:   "fetching",
		StateExtracting: "extracting",
		StateDone:       "done",
		State(99):       "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

// TestMultiReporter tests fan-out of diagnostics.
func TestMultiReporter(t *testing.T) {
	t.Parallel()

	a, b := &recordingReporter{}, &recordingReporter{}
	r := MultiReporter(a, nil, b)
	r.Crawling("https://example.com")
	r.Failed("https://example.com/x", errors.New("boom"))

	for _, rec := range []*recordingReporter{a, b} {
		if diff := cmp.Diff([]string{"https://example.com"}, rec.crawling); diff != "" {
			t.Errorf("crawling mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"https://example.com/x"}, rec.failed); diff != "" {
			t.Errorf("failed mismatch (-want +got):\n%s", diff)
		}
	}
}

// TestCrawlWebsiteHTTP tests a crawl against a real HTTP server.
func TestCrawlWebsiteHTTP(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Server", "cloudflare")
		_, _ = w.Write([]byte(`<html><head><title>Home</title></head><body>
			<a href="/about">about</a><a href="/broken">broken</a></body></html>`)) //nolint:errcheck
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="About us"></head>
			<body><a href="/">home</a></body></html>`)) //nolint:errcheck
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	seed := server.URL + "/"
	reporter := &recordingReporter{}
	result, err := CrawlWebsite(context.Background(), seed, 10, WithReporter(reporter))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{seed, server.URL + "/about"}
	if diff := cmp.Diff(want, result.URLs()); diff != "" {
		t.Errorf("URLs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{server.URL + "/broken"}, reporter.failed); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}

	home, _ := result.Get(seed)
	if !home.Technologies.Has(catalog.CDN, "Cloudflare") {
		t.Errorf("expected Cloudflare from the Server header, got %v", home.Technologies.Map())
	}
	about, _ := result.Get(server.URL + "/about")
	if title, ok := about.Title(); !ok || title != "About us" {
		t.Errorf("expected og:title fallback, got %q", title)
	}
}
