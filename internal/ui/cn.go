// Package ui holds the presentational building blocks of the login page.
// Every function returns a gomponents node and keeps no state.
package ui

import "strings"

// cn joins class lists, dropping blanks and repeated classes. Later lists
// come last so they win in the stylesheet cascade.
func cn(classes ...string) string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, list := range classes {
		for _, c := range strings.Fields(list) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
