// Package rank scores search results against a query.
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/searchcore/internal/domain/search/result"
)

const (
	titleMatchScore   = 10
	titlePrefixScore  = 5
	snippetMatchScore = 2
	recencyBonus      = 2
	recencyWindow     = 30 * 24 * time.Hour
)

// Rank scores results against query and returns them ordered by descending score.
// Equal scores keep their input order.
func Rank(results []result.Result, query string) []result.Result {
	return RankAt(results, query, time.Now())
}

// RankAt is Rank with an explicit reference time for the recency bonus.
func RankAt(results []result.Result, query string, now time.Time) []result.Result {
	terms := strings.Fields(strings.ToLower(query))

	ranked := make([]result.Result, len(results))
	for i, r := range results {
		ranked[i] = r.WithScore(float64(Score(r, terms, now)))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})
	return ranked
}

// Score computes the relevance of a single result for lower-cased query terms.
func Score(r result.Result, terms []string, now time.Time) int {
	title := strings.ToLower(r.Title())
	snippet := strings.ToLower(r.Snippet())

	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleMatchScore
		}
		if strings.HasPrefix(title, term) {
			score += titlePrefixScore
		}
		score += snippetMatchScore * strings.Count(snippet, term)
	}

	score += r.Source().QualityBonus()

	if ts := r.Timestamp(); !ts.IsZero() && now.Sub(ts) < recencyWindow {
		score += recencyBonus
	}
	return score
}
