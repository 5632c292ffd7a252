package catalog

import (
	"fmt"
	"strings"
)

// Category is a named group of detection rules.
type Category struct {
	// Name is the heading used in reports, e.g. "CDN".
	Name string

	// Rules are evaluated in order. Categories may have no rules; they
	// still take part in the category order.
	Rules []Rule
}

// Catalog is an immutable table of categories and their rules.
// The category order is the order in which reports list categories.
//
// A Catalog is safe for concurrent use because nothing mutates it after
// construction. Extend returns a new Catalog.
type Catalog struct {
	categories []Category
	index      map[string]int
}

// New builds a Catalog from the given categories.
// Rules are validated and their source patterns lowercased.
func New(categories ...Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
	}

	for _, category := range categories {
		if _, exists := c.index[strings.TrimSpace(category.Name)]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, category.Name)
		}
		if err := c.add(category); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// MustNew is like New but panics on an invalid catalog.
// It is meant for catalogs written in Go source.
func MustNew(categories ...Category) *Catalog {
	c, err := New(categories...)
	if err != nil {
		panic(err)
	}
	return c
}

// add validates category and merges it into the catalog.
// Rules for an existing category name are appended to that category.
func (c *Catalog) add(category Category) error {
	name := strings.TrimSpace(category.Name)
	if name == "" {
		return ErrEmptyCategory
	}

	rules := make([]Rule, 0, len(category.Rules))
	for _, rule := range category.Rules {
		if err := rule.validate(); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		rules = append(rules, rule.normalize())
	}

	if i, exists := c.index[name]; exists {
		c.categories[i].Rules = append(c.categories[i].Rules, rules...)
		return nil
	}

	c.index[name] = len(c.categories)
	c.categories = append(c.categories, Category{Name: name, Rules: rules})
	return nil
}

// Extend returns a new Catalog holding c's categories followed by the
// given ones. Rules of a category that already exists are appended to it;
// new categories are placed after the existing ones.
func (c *Catalog) Extend(categories ...Category) (*Catalog, error) {
	extended := c.clone()
	for _, category := range categories {
		if err := extended.add(category); err != nil {
			return nil, err
		}
	}
	return extended, nil
}

// clone returns a deep copy of the catalog.
func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		categories: make([]Category, len(c.categories)),
		index:      make(map[string]int, len(c.index)),
	}
	for i, category := range c.categories {
		out.categories[i] = Category{
			Name:  category.Name,
			Rules: append([]Rule(nil), category.Rules...),
		}
	}
	for name, i := range c.index {
		out.index[name] = i
	}
	return out
}

// Categories returns the category names in catalog order.
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.categories))
	for i, category := range c.categories {
		names[i] = category.Name
	}
	return names
}

// Rules returns a copy of the rules of the named category.
// The second result is false when the category does not exist.
func (c *Catalog) Rules(category string) ([]Rule, bool) {
	i, ok := c.index[category]
	if !ok {
		return nil, false
	}
	return append([]Rule(nil), c.categories[i].Rules...), true
}

// Each calls fn for every rule in catalog order.
func (c *Catalog) Each(fn func(category string, rule Rule)) {
	for _, category := range c.categories {
		for _, rule := range category.Rules {
			fn(category.Name, rule)
		}
	}
}

// RuleCount returns the total number of rules.
func (c *Catalog) RuleCount() int {
	n := 0
	for _, category := range c.categories {
		n += len(category.Rules)
	}
	return n
}
