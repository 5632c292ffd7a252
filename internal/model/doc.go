// Package model defines the result types produced by a crawl.
//
//   - PageResult: metadata, scripts, stylesheets and technologies of one page
//   - Technologies: ordered category → label set mapping
//   - AggregateResult: page results of one crawl in crawl order
//
// These types carry no behaviour beyond bookkeeping; crawling lives in
// the crawler package and rendering in the report package.
package model
