package catalog

import (
	"fmt"
	"strings"
)

// RuleKind identifies how a Rule is matched against a fetched page.
type RuleKind int

const (
	// KindSubstring matches when Pattern occurs in the lowercase page source.
	KindSubstring RuleKind = iota

	// KindSubstringWithVersion matches like KindSubstring and additionally
	// tries to read a version number that follows the pattern.
	// The emitted label is "pattern(version)" or the bare pattern.
	KindSubstringWithVersion

	// KindHeaderContains matches when the response header Key contains
	// Pattern, compared case-insensitively.
	KindHeaderContains

	// KindHeaderPresent matches when the response carries header Key.
	KindHeaderPresent

	// KindURLContains matches when the page URL contains Pattern.
	KindURLContains
)

// ruleKindNames maps kinds to the names used in configuration files.
var ruleKindNames = map[RuleKind]string{
	KindSubstring:            "substring",
	KindSubstringWithVersion: "substring_with_version",
	KindHeaderContains:       "header_contains",
	KindHeaderPresent:        "header_present",
	KindURLContains:          "url_contains",
}

// String returns the configuration name of the kind.
func (k RuleKind) String() string {
	if name, ok := ruleKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// ParseRuleKind converts a configuration name into a RuleKind.
// Matching ignores case and treats "-" and "_" the same.
func ParseRuleKind(s string) (RuleKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for kind, name := range ruleKindNames {
		if name == normalized {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRuleKind, s)
}

// Suffix refines the label of a matched rule.
// When When also occurs in the page source, Text is appended to the label.
type Suffix struct {
	// When is the substring that must also be present in the page source.
	When string

	// Text is appended verbatim to the label, e.g. "(GA4)".
	Text string
}

// Rule is a single detection rule within a category.
type Rule struct {
	// Kind selects the matching strategy.
	Kind RuleKind

	// Pattern is the substring to look for. Its meaning depends on Kind:
	// page source substring, header value fragment, or URL fragment.
	// Unused by KindHeaderPresent.
	Pattern string

	// Key is the response header name for header rules.
	Key string

	// Label is the technology name recorded on a match.
	// KindSubstringWithVersion rules label matches with their pattern.
	Label string

	// Suffix optionally refines Label. Nil means no refinement.
	Suffix *Suffix
}

// Substring returns a rule that records label when pattern occurs in the page source.
func Substring(pattern, label string) Rule {
	return Rule{Kind: KindSubstring, Pattern: pattern, Label: label}
}

// Keyword returns a rule that records the keyword itself, annotated with
// the version number that follows it when one is found.
func Keyword(keyword string) Rule {
	return Rule{Kind: KindSubstringWithVersion, Pattern: keyword}
}

// HeaderContains returns a rule that records label when header key contains value.
func HeaderContains(key, value, label string) Rule {
	return Rule{Kind: KindHeaderContains, Key: key, Pattern: value, Label: label}
}

// HeaderPresent returns a rule that records label when header key is present.
func HeaderPresent(key, label string) Rule {
	return Rule{Kind: KindHeaderPresent, Key: key, Label: label}
}

// URLContains returns a rule that records label when the page URL contains pattern.
func URLContains(pattern, label string) Rule {
	return Rule{Kind: KindURLContains, Pattern: pattern, Label: label}
}

// WithSuffix returns a copy of r that appends text to its label when
// when also occurs in the page source.
func (r Rule) WithSuffix(when, text string) Rule {
	r.Suffix = &Suffix{When: when, Text: text}
	return r
}

// MatchesSource reports whether the rule is evaluated against the page source.
func (r Rule) MatchesSource() bool {
	return r.Kind == KindSubstring || r.Kind == KindSubstringWithVersion
}

// validate checks that the rule carries the fields its kind needs.
func (r Rule) validate() error {
	switch r.Kind {
	case KindSubstring, KindURLContains:
		if r.Pattern == "" {
			return fmt.Errorf("%w: %s rule", ErrEmptyPattern, r.Kind)
		}
		if r.Label == "" {
			return fmt.Errorf("%w: %s rule for %q", ErrEmptyLabel, r.Kind, r.Pattern)
		}
	case KindSubstringWithVersion:
		if r.Pattern == "" {
			return fmt.Errorf("%w: %s rule", ErrEmptyPattern, r.Kind)
		}
	case KindHeaderContains:
		if r.Key == "" {
			return fmt.Errorf("%w: %s rule", ErrEmptyHeaderKey, r.Kind)
		}
		if r.Pattern == "" {
			return fmt.Errorf("%w: %s rule for header %q", ErrEmptyPattern, r.Kind, r.Key)
		}
		if r.Label == "" {
			return fmt.Errorf("%w: %s rule for header %q", ErrEmptyLabel, r.Kind, r.Key)
		}
	case KindHeaderPresent:
		if r.Key == "" {
			return fmt.Errorf("%w: %s rule", ErrEmptyHeaderKey, r.Kind)
		}
		if r.Label == "" {
			return fmt.Errorf("%w: %s rule for header %q", ErrEmptyLabel, r.Kind, r.Key)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRuleKind, r.Kind)
	}

	if r.Suffix != nil && r.Suffix.When == "" {
		return fmt.Errorf("%w: suffix condition", ErrEmptyPattern)
	}

	return nil
}

// normalize lowercases the parts of the rule that are compared with the
// lowercase page source. URL patterns and header values are left as written.
func (r Rule) normalize() Rule {
	if r.MatchesSource() {
		r.Pattern = strings.ToLower(r.Pattern)
	}
	if r.Suffix != nil {
		s := *r.Suffix
		s.When = strings.ToLower(s.When)
		r.Suffix = &s
	}
	return r
}
