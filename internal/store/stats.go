package store

import (
	"context"

	"github.com/rcliao/recall/internal/model"
)

// Stats holds repository statistics.
type Stats struct {
	TotalMemories int            `json:"total_memories"`
	TotalUses     int            `json:"total_uses"`
	ByImportance  map[string]int `json:"by_importance"`
	ByDomain      map[string]int `json:"by_domain"`
	Tags          []TagStats     `json:"tags"`

	// DanglingIndexEntries counts index ids whose memory no longer exists;
	// MissingIndexEntries counts memory tags absent from the index. Both are
	// zero for a healthy store and are repaired by Reindex.
	DanglingIndexEntries int `json:"dangling_index_entries"`
	MissingIndexEntries  int `json:"missing_index_entries"`
}

// TagStats holds per-tag counts.
type TagStats struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats returns repository statistics.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		TotalMemories: len(memories),
		ByImportance:  map[string]int{},
		ByDomain:      map[string]int{},
		Tags:          []TagStats{},
	}
	for _, m := range memories {
		st.TotalUses += m.UsageCount
		st.ByImportance[model.ImportanceLabel(m.EffectiveImportance())]++
		if m.Domain != "" {
			st.ByDomain[m.Domain]++
		}
		for _, t := range m.Tags {
			if !contains(idx[t], m.ID) {
				st.MissingIndexEntries++
			}
		}
	}

	counts := map[string]int{}
	for tag, ids := range idx {
		for _, id := range ids {
			if _, ok := memories[id]; ok {
				counts[tag]++
			} else {
				st.DanglingIndexEntries++
			}
		}
	}
	for _, tag := range sortedKeys(counts) {
		st.Tags = append(st.Tags, TagStats{Tag: tag, Count: counts[tag]})
	}
	return st, nil
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
