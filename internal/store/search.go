package store

import (
	"context"
	"sort"
	"strings"

	"github.com/rcliao/recall/internal/model"
)

// DefaultSearchLimit caps search results when SearchParams.Limit is unset.
const DefaultSearchLimit = 10

// SearchParams holds parameters for searching memories.
type SearchParams struct {
	Query string
	Tags  []string // every tag must be present
	Limit int
}

// Search finds memories whose text or summary contains the query, ignoring
// case. A blank query matches everything. Results are most recently used
// first.
func (r *Repository) Search(ctx context.Context, p SearchParams) ([]model.Memory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	query := strings.ToLower(strings.TrimSpace(p.Query))

	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	results := []model.Memory{}
	for _, m := range all {
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Text), query) &&
			!strings.Contains(strings.ToLower(m.Summary), query) {
			continue
		}
		if !hasAllTags(m, p.Tags) {
			continue
		}
		results = append(results, m)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.LastUsed != b.LastUsed {
			return a.LastUsed > b.LastUsed
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return a.ID < b.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func hasAllTags(m model.Memory, tags []string) bool {
	for _, t := range tags {
		if !m.HasTag(t) {
			return false
		}
	}
	return true
}
