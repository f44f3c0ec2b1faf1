package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/model"
)

// ExportAll returns every memory keyed by id, exactly as stored.
func (r *Repository) ExportAll(ctx context.Context) (map[string]model.Memory, error) {
	return r.List(ctx)
}

// Import replaces the stored memories with memories and rebuilds the tag
// index from them in the same batch. Records missing an id take their map key.
// Every record is checked before anything is written: text must not be blank
// and importance must be unset or a valid level. It returns the number of
// memories written.
func (r *Repository) Import(ctx context.Context, memories map[string]model.Memory) (int, error) {
	clean := make(map[string]model.Memory, len(memories))
	for key, m := range memories {
		if m.ID == "" {
			m.ID = key
		}
		if m.ID != key {
			return 0, &ValidationError{Field: "memories", Message: "record id " + m.ID + " does not match key " + key}
		}
		if strings.TrimSpace(m.Text) == "" {
			return 0, &ValidationError{Field: "memories", Message: "record " + key + " has empty text"}
		}
		if m.Importance != 0 && !model.ValidImportance(m.Importance) {
			return 0, &ValidationError{Field: "memories", Message: fmt.Sprintf("record %s has importance %d, want 1-3", key, m.Importance)}
		}
		m.Tags = model.NormalizeTags(m.Tags)
		clean[key] = m
	}

	memEntry, err := encode(kv.KeyMemories, clean)
	if err != nil {
		return 0, err
	}
	idxEntry, err := encode(kv.KeyTagIndex, buildIndex(clean))
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := kv.SaveAll(ctx, r.kv, memEntry, idxEntry); err != nil {
		return 0, err
	}
	r.opts.log.InfoContext(ctx, "memories imported", "count", len(clean))
	return len(clean), nil
}
