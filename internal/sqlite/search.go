// Text relevance ranking for the matching and search queries. The store
// pre-filters candidates in SQL; ranking happens here over the small
// remainder.
package sqlite

import (
	"sort"
	"strings"
)

// relevance scores how well a document's text matches a query: the
// number of query tokens that occur among the document's tokens,
// case-insensitive. Zero means no overlap.
func relevance(docText, queryText string) int {
	docTokens := strings.Fields(strings.ToLower(docText))
	if len(docTokens) == 0 {
		return 0
	}

	present := make(map[string]bool, len(docTokens))
	for _, tok := range docTokens {
		present[tok] = true
	}

	score := 0
	for _, tok := range strings.Fields(strings.ToLower(queryText)) {
		if present[tok] {
			score++
		}
	}
	return score
}

// scored pairs a value with its relevance score.
type scored[T any] struct {
	value T
	score int
}

// sortByScore orders by descending score and returns the bare values.
// The sort is stable, so equal scores keep the store's ordering.
func sortByScore[T any](ranked []scored[T]) []T {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	values := make([]T, len(ranked))
	for i, r := range ranked {
		values[i] = r.value
	}
	return values
}
