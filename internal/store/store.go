// Package store implements the memory repository, its tag index, the settings
// and summary records, and context assembly on top of a kv.Store.
package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/model"
)

// Metadata holds the optional fields of a new memory.
type Metadata struct {
	ID         string // supplied on import/restore; generated when empty
	Summary    string
	Importance int // 0 means medium
	Tags       []string
	Domain     string
	Source     string
}

// Repository owns the memory records and the tag index. All mutations are
// serialized; reads run concurrently with each other.
type Repository struct {
	kv   kv.Store
	opts options
	mu   sync.RWMutex
}

// New returns a Repository persisting to backend.
func New(backend kv.Store, opts ...Option) *Repository {
	return &Repository{kv: backend, opts: buildOptions(opts)}
}

// Create stores a new memory and indexes its tags.
func (r *Repository) Create(ctx context.Context, text string, meta Metadata) (*model.Memory, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Message: "must not be empty"}
	}
	importance := meta.Importance
	if importance == 0 {
		importance = model.ImportanceMedium
	}
	if !model.ValidImportance(importance) {
		return nil, &ValidationError{Field: "importance", Message: "must be 1 (low), 2 (medium) or 3 (high)"}
	}
	source := meta.Source
	if source == "" {
		source = model.DefaultSource
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}

	id := meta.ID
	if id == "" {
		id = r.opts.newID()
	} else if _, exists := memories[id]; exists {
		return nil, &ValidationError{Field: "id", Message: "already exists: " + id}
	}

	now := r.opts.nowMillis()
	m := model.Memory{
		ID:         id,
		Text:       text,
		Summary:    meta.Summary,
		Importance: importance,
		Tags:       model.NormalizeTags(meta.Tags),
		Domain:     meta.Domain,
		Source:     source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	memories[id] = m

	entries := []kv.Entry{}
	entry, err := encode(kv.KeyMemories, memories)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)

	if len(m.Tags) > 0 {
		idx, err := r.loadIndex(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range m.Tags {
			idx.add(t, id)
		}
		entry, err := encode(kv.KeyTagIndex, idx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := kv.SaveAll(ctx, r.kv, entries...); err != nil {
		return nil, err
	}
	r.opts.log.DebugContext(ctx, "memory created", "id", id, "tags", len(m.Tags))
	return &m, nil
}

// Get returns the memory with id, or a *NotFoundError.
func (r *Repository) Get(ctx context.Context, id string) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := memories[id]
	if !ok {
		return nil, memoryNotFound(id)
	}
	return &m, nil
}

// List returns a snapshot of every memory keyed by id.
func (r *Repository) List(ctx context.Context) (map[string]model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadMemories(ctx)
}

// ListByDomain returns the memories whose domain equals domain exactly,
// oldest first.
func (r *Repository) ListByDomain(ctx context.Context, domain string) ([]model.Memory, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Memory{}
	for _, m := range byCreation(all) {
		if m.Domain == domain {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListByTag resolves tag through the index, most recently used first. Index
// entries pointing at missing memories are skipped.
func (r *Repository) ListByTag(ctx context.Context, tag string) ([]model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}

	out := []model.Memory{}
	for _, id := range idx[tag] {
		m, ok := memories[id]
		if !ok {
			r.opts.log.DebugContext(ctx, "dangling tag index entry", "tag", tag, "id", id)
			continue
		}
		out = append(out, m)
	}
	byLastUsed(out)
	return out, nil
}

// Update merges patch into the memory with id and reconciles the tag index.
func (r *Repository) Update(ctx context.Context, id string, patch model.MemoryPatch) (*model.Memory, error) {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return nil, &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if patch.Importance != nil && !model.ValidImportance(*patch.Importance) {
		return nil, &ValidationError{Field: "importance", Message: "must be 1 (low), 2 (medium) or 3 (high)"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := memories[id]
	if !ok {
		return nil, memoryNotFound(id)
	}

	oldTags := m.Tags
	patch.Apply(&m)
	m.UpdatedAt = r.opts.nowMillis()
	memories[id] = m

	entry, err := encode(kv.KeyMemories, memories)
	if err != nil {
		return nil, err
	}
	entries := []kv.Entry{entry}

	removed, added := diffTags(oldTags, m.Tags)
	if len(removed) > 0 || len(added) > 0 {
		idx, err := r.loadIndex(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range removed {
			idx.remove(t, id)
		}
		for _, t := range added {
			idx.add(t, id)
		}
		entry, err := encode(kv.KeyTagIndex, idx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := kv.SaveAll(ctx, r.kv, entries...); err != nil {
		return nil, err
	}
	r.opts.log.DebugContext(ctx, "memory updated", "id", id, "tags_removed", len(removed), "tags_added", len(added))
	return &m, nil
}

// Delete removes the memory with id and its index entries. It reports false
// when there was nothing to delete.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return false, err
	}
	m, ok := memories[id]
	if !ok {
		return false, nil
	}
	delete(memories, id)

	entry, err := encode(kv.KeyMemories, memories)
	if err != nil {
		return false, err
	}
	entries := []kv.Entry{entry}

	if len(m.Tags) > 0 {
		idx, err := r.loadIndex(ctx)
		if err != nil {
			return false, err
		}
		for _, t := range m.Tags {
			idx.remove(t, id)
		}
		entry, err := encode(kv.KeyTagIndex, idx)
		if err != nil {
			return false, err
		}
		entries = append(entries, entry)
	}

	if err := kv.SaveAll(ctx, r.kv, entries...); err != nil {
		return false, err
	}
	r.opts.log.DebugContext(ctx, "memory deleted", "id", id)
	return true, nil
}

// TouchUsage records one use of the memory: lastUsed becomes now and
// usageCount grows by one. updatedAt tracks content edits and is untouched.
func (r *Repository) TouchUsage(ctx context.Context, id string) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}
	m, ok := memories[id]
	if !ok {
		return nil, memoryNotFound(id)
	}
	m.LastUsed = r.opts.nowMillis()
	m.UsageCount++
	memories[id] = m

	if err := r.save(ctx, kv.KeyMemories, memories); err != nil {
		return nil, err
	}
	return &m, nil
}

// TouchAll records one use of each memory in ids with a single write, so
// either every memory is touched or none is. Ids that no longer exist are
// skipped.
func (r *Repository) TouchAll(ctx context.Context, ids []string) ([]model.Memory, error) {
	if len(ids) == 0 {
		return []model.Memory{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}
	now := r.opts.nowMillis()
	touched := make([]model.Memory, 0, len(ids))
	for _, id := range ids {
		m, ok := memories[id]
		if !ok {
			continue
		}
		m.LastUsed = now
		m.UsageCount++
		memories[id] = m
		touched = append(touched, m)
	}

	if err := r.save(ctx, kv.KeyMemories, memories); err != nil {
		return nil, err
	}
	return touched, nil
}

// Tags returns every indexed tag with the number of live memories carrying it.
func (r *Repository) Tags(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}
	memories, err := r.loadMemories(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(idx))
	for tag, ids := range idx {
		n := 0
		for _, id := range ids {
			if _, ok := memories[id]; ok {
				n++
			}
		}
		if n > 0 {
			out[tag] = n
		}
	}
	return out, nil
}

// Reindex rebuilds the tag index from the stored memories.
func (r *Repository) Reindex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	memories, err := r.loadMemories(ctx)
	if err != nil {
		return err
	}
	idx := buildIndex(memories)
	if err := r.save(ctx, kv.KeyTagIndex, idx); err != nil {
		return err
	}
	r.opts.log.InfoContext(ctx, "tag index rebuilt", "tags", len(idx), "memories", len(memories))
	return nil
}

func (r *Repository) loadMemories(ctx context.Context) (map[string]model.Memory, error) {
	memories := map[string]model.Memory{}
	if err := load(ctx, r.kv, kv.KeyMemories, &memories); err != nil {
		return nil, err
	}
	if memories == nil {
		memories = map[string]model.Memory{}
	}
	return memories, nil
}

func (r *Repository) loadIndex(ctx context.Context) (tagIndex, error) {
	idx := tagIndex{}
	if err := load(ctx, r.kv, kv.KeyTagIndex, &idx); err != nil {
		return nil, err
	}
	if idx == nil {
		idx = tagIndex{}
	}
	return idx, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	entry, err := encode(key, v)
	if err != nil {
		return err
	}
	return r.kv.Save(ctx, entry.Key, entry.Value)
}

func load(ctx context.Context, s kv.Store, key string, v any) error {
	data, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	return decode(key, data, v)
}

func decode(key string, data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &kv.PersistenceError{Op: "decode", Key: key, Err: err}
	}
	return nil
}

func encode(key string, v any) (kv.Entry, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kv.Entry{}, &kv.PersistenceError{Op: "encode", Key: key, Err: err}
	}
	return kv.Entry{Key: key, Value: data}, nil
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
