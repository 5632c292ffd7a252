package report

import "github.com/nao1215/stackscan/internal/model"

// Summarize merges the technologies of every page into one set.
// Categories appear in the order they were first seen while walking
// pages in discovery order.
func Summarize(result *model.AggregateResult) model.Technologies {
	var merged model.Technologies
	if result == nil {
		return merged
	}
	for _, page := range result.Pages() {
		for _, category := range page.Technologies.Categories() {
			for _, label := range page.Technologies.Labels(category) {
				merged.Add(category, label)
			}
		}
	}
	return merged
}
