// Package alias resolves enum names written by track authors. Matching is
// case-insensitive (Unicode case folding) and ignores surrounding space,
// hyphens and underscores, so "Hair-Pin", "hairpin" and "HAIR_PIN" agree.
package alias

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Table maps folded spellings onto values of T.
type Table[T comparable] struct {
	byName map[string]T
	names  map[T]string
}

// New builds a table. The first spelling listed for a value is its
// canonical name, returned by Name.
func New[T comparable](entries map[T][]string) *Table[T] {
	t := &Table[T]{
		byName: make(map[string]T),
		names:  make(map[T]string, len(entries)),
	}
	for v, spellings := range entries {
		for i, s := range spellings {
			if i == 0 {
				t.names[v] = s
			}
			t.byName[fold(s)] = v
		}
	}
	return t
}

// Lookup resolves s. The second result is false for unknown spellings.
func (t *Table[T]) Lookup(s string) (T, bool) {
	v, ok := t.byName[fold(s)]
	return v, ok
}

// Name returns the canonical spelling of v, or "" if v has none.
func (t *Table[T]) Name(v T) string {
	return t.names[v]
}

// Names returns every canonical spelling in sorted order.
func (t *Table[T]) Names() []string {
	out := make([]string, 0, len(t.names))
	for _, n := range t.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var separators = strings.NewReplacer("-", "", "_", "", " ", "")

// fold makes its own Caser; a Caser keeps state and is not safe to share.
func fold(s string) string {
	s = separators.Replace(strings.TrimSpace(s))
	return cases.Fold().String(s)
}
