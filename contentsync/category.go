package contentsync

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Category is one class of content. Name is both the filename token and the
// subdirectory name under the destination root.
type Category struct {
	Name      string
	Retention int // number of newest files kept
}

// Matches reports whether filename belongs to the category.
func (c Category) Matches(filename string) bool {
	return strings.Contains(filename, c.Name)
}

// CategorySet is a validated, name-sorted list of categories.
type CategorySet []Category

// NewCategorySet validates categories and returns them sorted by name.
func NewCategorySet(categories []Category) (CategorySet, error) {
	seen := make(map[string]bool, len(categories))
	set := make(CategorySet, 0, len(categories))
	for _, c := range categories {
		switch {
		case c.Name == "":
			return nil, ErrEmptyCategory
		case c.Name != filepath.Base(c.Name) || c.Name == "." || c.Name == "..":
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategoryName, c.Name)
		case seen[c.Name]:
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, c.Name)
		case c.Retention < 0:
			return nil, fmt.Errorf("%w: %q has retention %d", ErrInvalidRetention, c.Name, c.Retention)
		}
		seen[c.Name] = true
		set = append(set, c)
	}
	slices.SortFunc(set, func(a, b Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return set, nil
}

// Names returns the category names in order.
func (s CategorySet) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Get returns the category with the given name.
func (s CategorySet) Get(name string) (Category, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Matching returns every category filename belongs to.
func (s CategorySet) Matching(filename string) []Category {
	var matches []Category
	for _, c := range s {
		if c.Matches(filename) {
			matches = append(matches, c)
		}
	}
	return matches
}

// Overlaps returns pairs of category names where the first token contains
// the second. Every file matching the first then also matches the second.
func (s CategorySet) Overlaps() [][2]string {
	var pairs [][2]string
	for _, outer := range s {
		for _, inner := range s {
			if outer.Name != inner.Name && strings.Contains(outer.Name, inner.Name) {
				pairs = append(pairs, [2]string{outer.Name, inner.Name})
			}
		}
	}
	return pairs
}

// Disjoint returns ErrOverlappingCategories if any token contains another.
func (s CategorySet) Disjoint() error {
	pairs := s.Overlaps()
	if len(pairs) == 0 {
		return nil
	}
	desc := make([]string, len(pairs))
	for i, p := range pairs {
		desc[i] = fmt.Sprintf("%q contains %q", p[0], p[1])
	}
	return fmt.Errorf("%w: %s", ErrOverlappingCategories, strings.Join(desc, ", "))
}
