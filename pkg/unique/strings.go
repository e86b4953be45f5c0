package unique

import (
	"sort"
	"strings"
)

// Strings returns a unique subset of the string slice provided, preserving
// the original ordering.
func Strings(input []string) []string {
	u := make([]string, 0, len(input))
	m := map[string]struct{}{}
	for _, val := range input {
		if _, ok := m[val]; !ok {
			m[val] = struct{}{}
			u = append(u, val)
		}
	}
	return u
}

// StringsSorted sorts the result before returning it.
func StringsSorted(input []string) []string {
	u := Strings(input)
	sort.Strings(u)
	return u
}

// FoldedStrings deduplicates case-insensitively; the first-seen spelling
// wins.
func FoldedStrings(input []string) []string {
	u := make([]string, 0, len(input))
	m := map[string]struct{}{}
	for _, val := range input {
		folded := strings.ToLower(val)
		if _, ok := m[folded]; !ok {
			m[folded] = struct{}{}
			u = append(u, val)
		}
	}
	return u
}
