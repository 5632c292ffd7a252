package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// progress shows the page being crawled on a terminal spinner, or as
// one "Crawling: <url>" line per page when w is not a terminal.
// It implements crawler.Reporter and is shared by concurrent crawls.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	spinner *spinner.Spinner
	plain   bool
	pages   int
	failed  int
}

func newProgress(w io.Writer) *progress {
	p := &progress{w: w}
	if f, ok := w.(*os.File); ok {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	} else {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	}
	p.spinner.Suffix = " starting"
	return p
}

// Start begins rendering. The spinner only runs when w is a terminal;
// otherwise progress falls back to plain lines.
func (p *progress) Start() {
	if _, ok := p.w.(*os.File); ok {
		p.spinner.Start()
	}
	p.mu.Lock()
	p.plain = !p.spinner.Active()
	p.mu.Unlock()
}

// Stop ends rendering and clears the spinner line.
func (p *progress) Stop() {
	p.spinner.Stop()
}

// Crawling implements crawler.Reporter.
func (p *progress) Crawling(pageURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages++
	if p.plain {
		fmt.Fprintf(p.w, "Crawling: %s\n", pageURL)
		return
	}
	p.setSuffix(" crawling " + pageURL)
}

// Failed implements crawler.Reporter.
func (p *progress) Failed(pageURL string, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
	if p.plain {
		return
	}
	p.setSuffix(" failed " + pageURL)
}

// Counts returns the number of fetch attempts and failures seen so far.
func (p *progress) Counts() (pages, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pages, p.failed
}

func (p *progress) setSuffix(suffix string) {
	p.spinner.Lock()
	p.spinner.Suffix = suffix
	p.spinner.Unlock()
}
