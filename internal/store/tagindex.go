package store

import (
	"sort"

	"github.com/rcliao/recall/internal/model"
)

// tagIndex maps a tag to the ids of the memories carrying it, in insertion
// order. A tag with no ids is removed.
type tagIndex map[string][]string

func (idx tagIndex) add(tag, id string) {
	for _, existing := range idx[tag] {
		if existing == id {
			return
		}
	}
	idx[tag] = append(idx[tag], id)
}

func (idx tagIndex) remove(tag, id string) {
	ids := idx[tag]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(idx, tag)
		return
	}
	idx[tag] = ids
}

// diffTags returns the tags only in old and the tags only in new. Tags present
// in both are in neither result.
func diffTags(old, new []string) (removed, added []string) {
	inOld := make(map[string]bool, len(old))
	for _, t := range old {
		inOld[t] = true
	}
	inNew := make(map[string]bool, len(new))
	for _, t := range new {
		inNew[t] = true
		if !inOld[t] {
			added = append(added, t)
		}
	}
	for _, t := range old {
		if !inNew[t] {
			removed = append(removed, t)
		}
	}
	return removed, added
}

// buildIndex derives the index from scratch, visiting memories in creation
// order so the result is deterministic.
func buildIndex(memories map[string]model.Memory) tagIndex {
	idx := tagIndex{}
	for _, m := range byCreation(memories) {
		for _, t := range m.Tags {
			idx.add(t, m.ID)
		}
	}
	return idx
}

// byCreation returns the memories ordered by createdAt, then id.
func byCreation(memories map[string]model.Memory) []model.Memory {
	out := make([]model.Memory, 0, len(memories))
	for _, m := range memories {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// byLastUsed sorts most recently used first. The sort is stable so callers
// control the order of ties.
func byLastUsed(memories []model.Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].LastUsed > memories[j].LastUsed
	})
}
