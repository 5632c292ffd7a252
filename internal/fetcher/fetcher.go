// Package fetcher retrieves web pages for the crawler.
//
// A Fetcher issues HTTP GET requests with a fixed timeout and a desktop
// browser User-Agent, and returns the parsed document together with the
// response headers.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/stackscan/internal/htmldoc"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the crawler as a common desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits how much of a response body is parsed.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Response is a successfully fetched page.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// Header holds the response headers with canonical keys.
	Header http.Header

	// Document is the parsed response body.
	Document *htmldoc.Document
}

// Fetcher performs page requests.
type Fetcher struct {
	client      *resty.Client
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*fetcherOptions)

type fetcherOptions struct {
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	cookie      string
	httpClient  *http.Client
	logger      *slog.Logger
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *fetcherOptions) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *fetcherOptions) {
		o.userAgent = ua
	}
}

// WithMaxBodySize limits the number of body bytes read per response.
// Zero or negative values keep the default.
func WithMaxBodySize(size int64) Option {
	return func(o *fetcherOptions) {
		if size > 0 {
			o.maxBodySize = size
		}
	}
}

// WithHeaders adds request headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *fetcherOptions) {
		o.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(o *fetcherOptions) {
		o.cookie = cookie
	}
}

// WithHTTPClient sets the underlying HTTP client.
// The Fetcher works on a shallow copy, so the timeout option applies
// without modifying client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *fetcherOptions) {
		o.httpClient = client
	}
}

// WithLogger routes transport diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *fetcherOptions) {
		o.logger = logger
	}
}

// New returns a Fetcher configured by opts.
func New(opts ...Option) *Fetcher {
	o := fetcherOptions{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var client *resty.Client
	if o.httpClient != nil {
		hc := *o.httpClient
		client = resty.NewWithClient(&hc)
	} else {
		client = resty.New()
	}

	client.
		SetTimeout(o.timeout).
		SetLogger(newRestyLogger(o.logger)).
		SetHeader("User-Agent", o.userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	for k, v := range o.headers {
		client.SetHeader(k, v)
	}
	if o.cookie != "" {
		client.SetHeader("Cookie", o.cookie)
	}

	return &Fetcher{
		client:      client,
		maxBodySize: o.maxBodySize,
	}
}

// Fetch retrieves pageURL and parses the body as HTML.
//
// Transport failures and responses with status 400 or above return a
// *FetchError. Bodies are decoded to UTF-8 using the Content-Type
// charset, a <meta> declaration or a BOM, and are parsed whatever their
// content type; malformed markup yields a best-effort document.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Response, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, body, 4096) //nolint:errcheck
		return nil, &FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status()),
		}
	}

	utf8Body, err := charset.NewReader(io.LimitReader(body, f.maxBodySize), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode(), Err: err}
	}

	doc, err := htmldoc.Parse(utf8Body)
	if err != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode(), Err: err}
	}

	return &Response{
		URL:        pageURL,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header().Clone(),
		Document:   doc,
	}, nil
}
