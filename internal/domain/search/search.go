// Package search provides fuzzy lookup of parks by name and state.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/okian/parkrank/internal/domain/model"
)

// parkSource implements fuzzy.Source over "name state" strings.
type parkSource []model.Park

func (s parkSource) Len() int { return len(s) }

func (s parkSource) String(i int) string {
	return normalize(s[i].Name + " " + s[i].State)
}

func normalize(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

// Blank reports whether query has nothing to match on.
func Blank(query string) bool {
	return strings.TrimSpace(query) == ""
}

// Parks returns the parks matching query, best match first, at most limit
// results (limit <= 0 means no cap). An empty query matches nothing.
func Parks(parks []model.Park, query string, limit int) []model.Park {
	q := normalize(query)
	if q == "" || len(parks) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(q, parkSource(parks))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]model.Park, len(matches))
	for i, m := range matches {
		out[i] = parks[m.Index]
	}
	return out
}
