package catalog

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// TestDefault tests the built-in catalog.
func TestDefault(t *testing.T) {
	t.Parallel()

	t.Run("lists categories in report order", func(t *testing.T) {
		t.Parallel()

		got := Default().Categories()
		if diff := cmp.Diff(categoryOrder, got); diff != "" {
			t.Errorf("categories mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("includes the header heuristics", func(t *testing.T) {
		t.Parallel()

		rules, ok := Default().Rules(CDN)
		if !ok {
			t.Fatal("expected CDN category")
		}

		found := false
		for _, r := range rules {
			if r.Kind == KindHeaderContains && r.Key == "Server" && r.Label == "Cloudflare" {
				found = true
			}
		}
		if !found {
			t.Error("expected Server/cloudflare rule in CDN")
		}
	})

	t.Run("attaches the GA4 suffix to Google Analytics", func(t *testing.T) {
		t.Parallel()

		rules, _ := Default().Rules(Analytics)
		for _, r := range rules {
			if r.Label != "Google Analytics" {
				continue
			}
			if r.Suffix == nil || r.Suffix.When != "ga4" || r.Suffix.Text != "(GA4)" {
				t.Errorf("unexpected suffix: %+v", r.Suffix)
			}
			return
		}
		t.Error("Google Analytics rule not found")
	})

	t.Run("returns independent catalogs", func(t *testing.T) {
		t.Parallel()

		a := Default()
		b := Default()
		if _, err := a.Extend(Category{Name: CDN, Rules: []Rule{Keyword("bunny")}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.RuleCount() != b.RuleCount() {
			t.Errorf("Extend mutated the receiver: %d != %d", a.RuleCount(), b.RuleCount())
		}
	})
}

// TestNew tests catalog validation.
func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category Category
		wantErr  error
	}{
		{
			name:     "empty category name",
			category: Category{Name: " "},
			wantErr:  ErrEmptyCategory,
		},
		{
			name:     "substring without pattern",
			category: Category{Name: "X", Rules: []Rule{Substring("", "Label")}},
			wantErr:  ErrEmptyPattern,
		},
		{
			name:     "substring without label",
			category: Category{Name: "X", Rules: []Rule{Substring("x", "")}},
			wantErr:  ErrEmptyLabel,
		},
		{
			name:     "header rule without key",
			category: Category{Name: "X", Rules: []Rule{HeaderPresent("", "Label")}},
			wantErr:  ErrEmptyHeaderKey,
		},
		{
			name:     "unknown kind",
			category: Category{Name: "X", Rules: []Rule{{Kind: RuleKind(99), Pattern: "x", Label: "y"}}},
			wantErr:  ErrUnknownRuleKind,
		},
		{
			name:     "keyword without label is fine",
			category: Category{Name: "X", Rules: []Rule{Keyword("jquery")}},
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.category)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("rejects duplicate categories", func(t *testing.T) {
		t.Parallel()

		_, err := New(Category{Name: "A"}, Category{Name: "A"})
		if !errors.Is(err, ErrDuplicateCategory) {
			t.Errorf("expected ErrDuplicateCategory, got %v", err)
		}
	})

	t.Run("lowercases source patterns only", func(t *testing.T) {
		t.Parallel()

		c := MustNew(Category{Name: "X", Rules: []Rule{
			Substring("WordPress", "WordPress"),
			URLContains("Shop", "Shop"),
			Substring("Foo", "Foo").WithSuffix("GA4", "(GA4)"),
		}})

		rules, _ := c.Rules("X")
		if rules[0].Pattern != "wordpress" {
			t.Errorf("expected lowercase source pattern, got %q", rules[0].Pattern)
		}
		if rules[1].Pattern != "Shop" {
			t.Errorf("expected URL pattern unchanged, got %q", rules[1].Pattern)
		}
		if rules[2].Suffix.When != "ga4" {
			t.Errorf("expected lowercase suffix condition, got %q", rules[2].Suffix.When)
		}
	})
}

// TestExtend tests appending rules and categories.
func TestExtend(t *testing.T) {
	t.Parallel()

	base := MustNew(
		Category{Name: "A", Rules: []Rule{Keyword("one")}},
		Category{Name: "B"},
	)

	extended, err := base.Extend(
		Category{Name: "B", Rules: []Rule{Keyword("two")}},
		Category{Name: "C", Rules: []Rule{Keyword("three")}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"A", "B", "C"}, extended.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	rules, _ := extended.Rules("B")
	if len(rules) != 1 || rules[0].Pattern != "two" {
		t.Errorf("expected rule appended to B, got %+v", rules)
	}

	if _, ok := base.Rules("C"); ok {
		t.Error("base catalog must not gain category C")
	}
}

// TestParseRuleKind tests configuration names.
func TestParseRuleKind(t *testing.T) {
	t.Parallel()

	for kind, name := range ruleKindNames {
		got, err := ParseRuleKind(name)
		if err != nil {
			t.Errorf("ParseRuleKind(%q) error: %v", name, err)
		}
		if got != kind {
			t.Errorf("ParseRuleKind(%q) = %v, want %v", name, got, kind)
		}
	}

	if got, err := ParseRuleKind("Header-Present"); err != nil || got != KindHeaderPresent {
		t.Errorf("expected dash/case tolerant parsing, got %v, %v", got, err)
	}

	if _, err := ParseRuleKind("regex"); !errors.Is(err, ErrUnknownRuleKind) {
		t.Errorf("expected ErrUnknownRuleKind, got %v", err)
	}
}

// TestFileSpec tests YAML catalog extensions.
func TestFileSpec(t *testing.T) {
	t.Parallel()

	t.Run("applies keywords and rules", func(t *testing.T) {
		t.Parallel()

		data := `
categories:
  - name: CDN
    keywords: [bunnycdn]
  - name: CMS
    rules:
      - kind: header_present
        key: X-Drupal-Cache
        label: Drupal
      - kind: substring
        pattern: Ghost
        label: Ghost
        suffixWhen: ghost-5
        suffixText: " 5.x"
`
		var spec FileSpec
		if err := yaml.Unmarshal([]byte(data), &spec); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}

		c, err := spec.Apply(Default())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		names := c.Categories()
		if names[len(names)-1] != "CMS" {
			t.Errorf("expected CMS appended last, got %v", names)
		}

		rules, _ := c.Rules("CMS")
		if len(rules) != 2 {
			t.Fatalf("expected 2 CMS rules, got %d", len(rules))
		}
		if rules[0].Kind != KindHeaderPresent || rules[0].Key != "X-Drupal-Cache" {
			t.Errorf("unexpected first rule: %+v", rules[0])
		}
		if rules[1].Pattern != "ghost" || rules[1].Suffix == nil || rules[1].Suffix.Text != " 5.x" {
			t.Errorf("unexpected second rule: %+v", rules[1])
		}

		cdn, _ := c.Rules(CDN)
		last := cdn[len(cdn)-1]
		if last.Kind != KindSubstringWithVersion || last.Pattern != "bunnycdn" {
			t.Errorf("expected bunnycdn keyword appended to CDN, got %+v", last)
		}
	})

	t.Run("empty file returns base", func(t *testing.T) {
		t.Parallel()

		base := Default()
		c, err := FileSpec{}.Apply(base)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c != base {
			t.Error("expected the same catalog for an empty file")
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		t.Parallel()

		spec := FileSpec{Categories: []CategorySpec{{
			Name:  "X",
			Rules: []RuleSpec{{Kind: "xpath", Pattern: "//a", Label: "A"}},
		}}}
		if _, err := spec.Apply(Default()); !errors.Is(err, ErrUnknownRuleKind) {
			t.Errorf("expected ErrUnknownRuleKind, got %v", err)
		}
	})
}
