package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/stackscan/internal/crawler"
	"github.com/nao1215/stackscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of seeds crawled at once.
const DefaultConcurrency = 4

// SpiderFactory creates the Spider used to crawl seed.
type SpiderFactory func(seed string) (*crawler.Spider, error)

// Result is the outcome of crawling one seed.
type Result struct {
	// Seed is the seed URL as given.
	Seed string

	// Aggregate holds the pages crawled before the crawl ended.
	// It is nil when the crawl could not start.
	Aggregate *model.AggregateResult

	// Err is the error that ended the crawl early, if any.
	Err error

	// Elapsed is the wall time of the crawl.
	Elapsed time.Duration
}

// Processor crawls a list of seeds with bounded concurrency.
type Processor struct {
	factory     SpiderFactory
	concurrency int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger for batch-level messages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor that builds one Spider per seed with factory.
func NewProcessor(factory SpiderFactory, opts ...Option) *Processor {
	p := &Processor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process crawls every seed and returns one Result per seed, in input order.
// Failed crawls are recorded in their Result and do not stop the others.
// The returned error is non-nil only when ctx ended the batch.
func (p *Processor) Process(ctx context.Context, seeds []string) ([]Result, error) {
	results := make([]Result, len(seeds))
	err := p.run(ctx, seeds, func(r Result, i int) {
		results[i] = r
	})
	return results, err
}

// ProcessWithCallback crawls every seed and calls fn as each crawl ends.
// fn runs on the crawling goroutine and must be safe for concurrent use.
func (p *Processor) ProcessWithCallback(ctx context.Context, seeds []string, fn func(r Result, index int)) error {
	return p.run(ctx, seeds, fn)
}

func (p *Processor) run(ctx context.Context, seeds []string, fn func(Result, int)) error {
	p.logger.Info("starting batch",
		"total", len(seeds),
		"concurrency", p.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				fn(Result{Seed: seed, Err: err}, i)
				return err
			}

			r := p.crawl(gctx, seed)
			fn(r, i)

			if r.Err != nil {
				p.logger.Warn("crawl failed", "seed", seed, "error", r.Err)
			} else {
				p.logger.Info("crawl completed",
					"seed", seed,
					"pages", r.Aggregate.Len(),
					"elapsed", r.Elapsed,
				)
			}
			return nil
		})
	}

	err := g.Wait()
	p.logger.Info("batch complete",
		"total", len(seeds),
		"elapsed", time.Since(start),
	)
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func (p *Processor) crawl(ctx context.Context, seed string) Result {
	start := time.Now()

	spider, err := p.factory(seed)
	if err != nil {
		return Result{Seed: seed, Err: err, Elapsed: time.Since(start)}
	}

	aggregate, err := spider.Crawl(ctx, seed)
	return Result{
		Seed:      seed,
		Aggregate: aggregate,
		Err:       err,
		Elapsed:   time.Since(start),
	}
}
