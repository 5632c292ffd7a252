package catalog

import "errors"

// Catalog construction errors.
var (
	// ErrEmptyCategory is returned when a category has no name.
	ErrEmptyCategory = errors.New("category name must not be empty")

	// ErrDuplicateCategory is returned by New when two categories share a name.
	ErrDuplicateCategory = errors.New("duplicate category")

	// ErrUnknownRuleKind is returned for a rule kind that has no matcher.
	ErrUnknownRuleKind = errors.New("unknown rule kind")

	// ErrEmptyPattern is returned when a rule that needs a pattern has none.
	ErrEmptyPattern = errors.New("rule pattern must not be empty")

	// ErrEmptyHeaderKey is returned when a header rule names no header.
	ErrEmptyHeaderKey = errors.New("rule header key must not be empty")

	// ErrEmptyLabel is returned when a rule would record an empty label.
	ErrEmptyLabel = errors.New("rule label must not be empty")
)
