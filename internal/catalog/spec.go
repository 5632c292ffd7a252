package catalog

import "fmt"

// FileSpec is the configuration-file form of catalog extensions.
//
//	catalog:
//	  categories:
//	    - name: CMS
//	      keywords: [ghost, joomla]
//	      rules:
//	        - kind: header_present
//	          key: X-Drupal-Cache
//	          label: Drupal
type FileSpec struct {
	Categories []CategorySpec `yaml:"categories,omitempty"`
}

// CategorySpec describes one category in a configuration file.
type CategorySpec struct {
	// Name is the category heading. Existing categories are extended.
	Name string `yaml:"name"`

	// Keywords become KindSubstringWithVersion rules.
	Keywords []string `yaml:"keywords,omitempty"`

	// Rules are explicit rules of any kind.
	Rules []RuleSpec `yaml:"rules,omitempty"`
}

// RuleSpec describes one rule in a configuration file.
type RuleSpec struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern,omitempty"`
	Key     string `yaml:"key,omitempty"`
	Label   string `yaml:"label,omitempty"`

	// SuffixWhen and SuffixText map onto Rule.Suffix.
	SuffixWhen string `yaml:"suffixWhen,omitempty"`
	SuffixText string `yaml:"suffixText,omitempty"`
}

// Rule converts the RuleSpec into a Rule.
func (s RuleSpec) Rule() (Rule, error) {
	kind, err := ParseRuleKind(s.Kind)
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{
		Kind:    kind,
		Pattern: s.Pattern,
		Key:     s.Key,
		Label:   s.Label,
	}
	if s.SuffixWhen != "" || s.SuffixText != "" {
		rule = rule.WithSuffix(s.SuffixWhen, s.SuffixText)
	}
	return rule, nil
}

// Category converts the CategorySpec into a Category.
func (s CategorySpec) Category() (Category, error) {
	category := Category{
		Name:  s.Name,
		Rules: make([]Rule, 0, len(s.Keywords)+len(s.Rules)),
	}

	for _, keyword := range s.Keywords {
		category.Rules = append(category.Rules, Keyword(keyword))
	}

	for i, rs := range s.Rules {
		rule, err := rs.Rule()
		if err != nil {
			return Category{}, fmt.Errorf("category %q rule %d: %w", s.Name, i, err)
		}
		category.Rules = append(category.Rules, rule)
	}

	return category, nil
}

// IsEmpty reports whether the FileSpec adds nothing.
func (s FileSpec) IsEmpty() bool {
	return len(s.Categories) == 0
}

// Apply extends base with the categories described by s.
// An empty FileSpec returns base unchanged.
func (s FileSpec) Apply(base *Catalog) (*Catalog, error) {
	if s.IsEmpty() {
		return base, nil
	}

	categories := make([]Category, 0, len(s.Categories))
	for _, cs := range s.Categories {
		category, err := cs.Category()
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return base.Extend(categories...)
}
