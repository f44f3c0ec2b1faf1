package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/model"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("m%d", n)
	}
}

type testEnv struct {
	kv       kv.Store
	repo     *Repository
	settings *SettingsStore
	clock    *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend, err := kv.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return newTestEnvWith(backend)
}

func newTestEnvWith(backend kv.Store) *testEnv {
	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	opts := []Option{WithClock(clock.Now), WithIDGenerator(sequentialIDs())}
	return &testEnv{
		kv:       backend,
		repo:     New(backend, opts...),
		settings: NewSettingsStore(backend, opts...),
		clock:    clock,
	}
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return newTestEnv(t).repo
}

func mustCreate(t *testing.T, r *Repository, text string, meta Metadata) *model.Memory {
	t.Helper()
	m, err := r.Create(context.Background(), text, meta)
	if err != nil {
		t.Fatalf("create %q: %v", text, err)
	}
	return m
}

func ids(memories []model.Memory) []string {
	out := make([]string, len(memories))
	for i, m := range memories {
		out[i] = m.ID
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	m, err := env.repo.Create(ctx, "Buy milk", Metadata{
		Summary: "groceries",
		Tags:    []string{" home ", "shopping", "home", ""},
		Domain:  "example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID != "m1" {
		t.Errorf("expected id m1, got %s", m.ID)
	}
	if m.Importance != model.ImportanceMedium {
		t.Errorf("expected default importance 2, got %d", m.Importance)
	}
	if m.Source != model.DefaultSource {
		t.Errorf("expected source %q, got %q", model.DefaultSource, m.Source)
	}
	if m.CreatedAt != m.UpdatedAt || m.CreatedAt != env.clock.Now().UnixMilli() {
		t.Errorf("unexpected timestamps: created %d updated %d", m.CreatedAt, m.UpdatedAt)
	}
	if m.LastUsed != 0 || m.UsageCount != 0 {
		t.Errorf("new memory should be unused, got lastUsed %d count %d", m.LastUsed, m.UsageCount)
	}
	if len(m.Tags) != 2 || m.Tags[0] != "home" || m.Tags[1] != "shopping" {
		t.Errorf("expected normalized tags [home shopping], got %v", m.Tags)
	}

	got, err := env.repo.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "Buy milk" || got.Summary != "groceries" || got.Domain != "example.com" {
		t.Errorf("unexpected memory: %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	if _, err := r.Create(ctx, "   ", Metadata{}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank text: expected validation error, got %v", err)
	}
	if _, err := r.Create(ctx, "x", Metadata{Importance: 4}); !errors.Is(err, ErrValidation) {
		t.Errorf("importance 4: expected validation error, got %v", err)
	}
	if _, err := r.Create(ctx, "x", Metadata{Importance: -1}); !errors.Is(err, ErrValidation) {
		t.Errorf("importance -1: expected validation error, got %v", err)
	}

	all, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("rejected creates must not write, found %d memories", len(all))
	}
}

func TestCreateWithSuppliedID(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	m := mustCreate(t, r, "restored", Metadata{ID: "abc"})
	if m.ID != "abc" {
		t.Fatalf("expected id abc, got %s", m.ID)
	}
	if _, err := r.Create(ctx, "again", Metadata{ID: "abc"}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate id: expected validation error, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "memory" || nf.ID != "nope" {
		t.Errorf("unexpected error detail: %v", err)
	}
}

func TestListByDomain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a := mustCreate(t, env.repo, "a", Metadata{Domain: "example.com"})
	env.clock.Advance(time.Second)
	mustCreate(t, env.repo, "b", Metadata{Domain: "other.org"})
	env.clock.Advance(time.Second)
	c := mustCreate(t, env.repo, "c", Metadata{Domain: "example.com"})
	mustCreate(t, env.repo, "d", Metadata{})

	got, err := env.repo.ListByDomain(ctx, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{a.ID, c.ID}; fmt.Sprint(ids(got)) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, ids(got))
	}

	got, err = env.repo.ListByDomain(ctx, "missing.net")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListByTagOrdersByLastUsed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	a := mustCreate(t, env.repo, "a", Metadata{Tags: []string{"go"}})
	b := mustCreate(t, env.repo, "b", Metadata{Tags: []string{"go"}})
	c := mustCreate(t, env.repo, "c", Metadata{Tags: []string{"go", "db"}})

	env.clock.Advance(time.Minute)
	if _, err := env.repo.TouchUsage(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	env.clock.Advance(time.Minute)
	if _, err := env.repo.TouchUsage(ctx, c.ID); err != nil {
		t.Fatal(err)
	}

	got, err := env.repo.ListByTag(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{c.ID, b.ID, a.ID}; fmt.Sprint(ids(got)) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, ids(got))
	}

	got, err = env.repo.ListByTag(ctx, "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no memories for unknown tag, got %v", ids(got))
	}
}

func TestListByTagSkipsDanglingEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := mustCreate(t, env.repo, "a", Metadata{Tags: []string{"x"}})

	if err := env.kv.Save(ctx, kv.KeyTagIndex, []byte(`{"x":["ghost","`+a.ID+`"]}`)); err != nil {
		t.Fatal(err)
	}
	got, err := env.repo.ListByTag(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("expected only %s, got %v", a.ID, ids(got))
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := mustCreate(t, env.repo, "original", Metadata{Summary: "sum", Importance: 1, Tags: []string{"a", "b"}})

	env.clock.Advance(time.Hour)
	text := "edited"
	importance := 3
	got, err := env.repo.Update(ctx, m.ID, model.MemoryPatch{
		Text:       &text,
		Importance: &importance,
		Tags:       []string{"b", "c"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Text != "edited" || got.Importance != 3 {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Summary != "sum" {
		t.Errorf("unspecified field changed: summary %q", got.Summary)
	}
	if got.CreatedAt != m.CreatedAt {
		t.Errorf("createdAt changed from %d to %d", m.CreatedAt, got.CreatedAt)
	}
	if got.UpdatedAt != env.clock.Now().UnixMilli() {
		t.Errorf("updatedAt not stamped: %d", got.UpdatedAt)
	}

	for tag, want := range map[string]int{"a": 0, "b": 1, "c": 1} {
		list, err := env.repo.ListByTag(ctx, tag)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != want {
			t.Errorf("tag %s: expected %d memories, got %d", tag, want, len(list))
		}
	}
}

func TestUpdateEmptyPatchStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := mustCreate(t, env.repo, "same", Metadata{Tags: []string{"t"}})

	env.clock.Advance(time.Second)
	got, err := env.repo.Update(ctx, m.ID, model.MemoryPatch{})
	if err != nil {
		t.Fatal(err)
	}
	if got.UpdatedAt <= m.UpdatedAt {
		t.Errorf("expected updatedAt to advance, got %d <= %d", got.UpdatedAt, m.UpdatedAt)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "t" {
		t.Errorf("tags changed: %v", got.Tags)
	}
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	m := mustCreate(t, r, "x", Metadata{})

	if _, err := r.Update(ctx, "missing", model.MemoryPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	blank := " "
	if _, err := r.Update(ctx, m.ID, model.MemoryPatch{Text: &blank}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank text: expected validation error, got %v", err)
	}
	bad := 9
	if _, err := r.Update(ctx, m.ID, model.MemoryPatch{Importance: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad importance: expected validation error, got %v", err)
	}
}

func TestDeleteRemovesIndexEntries(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	m := mustCreate(t, r, "tagged", Metadata{Tags: []string{"x", "y"}})

	deleted, err := r.Delete(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}
	for _, tag := range []string{"x", "y"} {
		list, err := r.ListByTag(ctx, tag)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 0 {
			t.Errorf("tag %s: expected empty, got %v", tag, ids(list))
		}
	}
	tags, err := r.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags left, got %v", tags)
	}

	deleted, err = r.Delete(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Error("second delete should report false")
	}
}

func TestTouchUsage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := mustCreate(t, env.repo, "x", Metadata{})

	env.clock.Advance(time.Minute)
	got, err := env.repo.TouchUsage(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageCount != 1 || got.LastUsed != env.clock.Now().UnixMilli() {
		t.Errorf("unexpected usage: count %d lastUsed %d", got.UsageCount, got.LastUsed)
	}
	if got.UpdatedAt != m.UpdatedAt {
		t.Errorf("touch must not change updatedAt")
	}

	env.clock.Advance(time.Hour)
	got, err = env.repo.TouchUsage(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageCount != 2 {
		t.Errorf("expected count 2, got %d", got.UsageCount)
	}
	if got.LastUsed != env.clock.Now().UnixMilli() {
		t.Errorf("lastUsed should be the second touch time, got %d", got.LastUsed)
	}
	if got.UpdatedAt != m.UpdatedAt || got.Text != m.Text || len(got.Tags) != len(m.Tags) {
		t.Errorf("touch changed content fields: %+v", got)
	}

	if _, err := env.repo.TouchUsage(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestTouchAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := mustCreate(t, env.repo, "a", Metadata{})
	b := mustCreate(t, env.repo, "b", Metadata{})
	c := mustCreate(t, env.repo, "c", Metadata{})

	env.clock.Advance(time.Minute)
	touched, err := env.repo.TouchAll(ctx, []string{a.ID, "missing", b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(touched) != 2 {
		t.Fatalf("expected 2 touched, got %v", ids(touched))
	}
	for _, m := range []*model.Memory{a, b} {
		got, _ := env.repo.Get(ctx, m.ID)
		if got.UsageCount != 1 || got.LastUsed != env.clock.Now().UnixMilli() {
			t.Errorf("%s not touched: %+v", m.ID, got)
		}
	}
	if got, _ := env.repo.Get(ctx, c.ID); got.UsageCount != 0 {
		t.Errorf("untouched memory changed: %+v", got)
	}
}

func TestReindexRepairsIndex(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := mustCreate(t, env.repo, "a", Metadata{Tags: []string{"x"}})
	b := mustCreate(t, env.repo, "b", Metadata{Tags: []string{"x", "y"}})

	if err := env.kv.Save(ctx, kv.KeyTagIndex, []byte(`{"x":["ghost"],"z":["`+a.ID+`"]}`)); err != nil {
		t.Fatal(err)
	}
	st, err := env.repo.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.DanglingIndexEntries != 1 || st.MissingIndexEntries != 3 {
		t.Errorf("expected 1 dangling and 3 missing, got %d and %d", st.DanglingIndexEntries, st.MissingIndexEntries)
	}

	if err := env.repo.Reindex(ctx); err != nil {
		t.Fatal(err)
	}
	tags, err := env.repo.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags["x"] != 2 || tags["y"] != 1 {
		t.Errorf("unexpected tags after reindex: %v", tags)
	}
	list, err := env.repo.ListByTag(ctx, "y")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("expected [%s], got %v", b.ID, ids(list))
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mustCreate(t, env.repo, "a", Metadata{Importance: 3, Tags: []string{"go"}, Domain: "example.com"})
	b := mustCreate(t, env.repo, "b", Metadata{Importance: 1, Tags: []string{"go", "db"}})
	mustCreate(t, env.repo, "c", Metadata{})
	env.repo.TouchUsage(ctx, b.ID)
	env.repo.TouchUsage(ctx, b.ID)

	st, err := env.repo.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalMemories != 3 || st.TotalUses != 2 {
		t.Errorf("expected 3 memories and 2 uses, got %d and %d", st.TotalMemories, st.TotalUses)
	}
	if st.ByImportance["high"] != 1 || st.ByImportance["medium"] != 1 || st.ByImportance["low"] != 1 {
		t.Errorf("unexpected importance counts: %v", st.ByImportance)
	}
	if st.ByDomain["example.com"] != 1 || len(st.ByDomain) != 1 {
		t.Errorf("unexpected domain counts: %v", st.ByDomain)
	}
	if len(st.Tags) != 2 || st.Tags[0].Tag != "db" || st.Tags[1].Tag != "go" || st.Tags[1].Count != 2 {
		t.Errorf("unexpected tag stats: %+v", st.Tags)
	}
	if st.DanglingIndexEntries != 0 || st.MissingIndexEntries != 0 {
		t.Errorf("healthy store reported index drift: %+v", st)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestRepo(t)
	mustCreate(t, src, "a", Metadata{Tags: []string{"x"}})
	mustCreate(t, src, "b", Metadata{Tags: []string{"x", "y"}})

	exported, err := src.ExportAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// an id-less record takes its key
	exported["legacy"] = model.Memory{Text: "old", Tags: []string{"y"}}

	dst := newTestRepo(t)
	n, err := dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 imported, got %d", n)
	}
	legacy, err := dst.Get(ctx, "legacy")
	if err != nil {
		t.Fatal(err)
	}
	if legacy.ID != "legacy" {
		t.Errorf("expected id from key, got %q", legacy.ID)
	}
	tags, err := dst.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tags["x"] != 2 || tags["y"] != 2 {
		t.Errorf("index not rebuilt on import: %v", tags)
	}

	for name, bad := range map[string]model.Memory{
		"mismatched id":    {ID: "other", Text: "t"},
		"blank text":       {Text: "   "},
		"importance high":  {Text: "t", Importance: 9},
		"importance minus": {Text: "t", Importance: -1},
	} {
		_, err = dst.Import(ctx, map[string]model.Memory{"k": bad, "ok": {Text: "fine"}})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	all, err := dst.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("rejected imports must not write, have %d memories", len(all))
	}
}

// failingStore loads from an in-memory backend but refuses every write.
type failingStore struct {
	*kv.Memory
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func (failingStore) SaveAll(context.Context, []kv.Entry) error {
	return errors.New("disk full")
}

func TestPersistenceFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvWith(failingStore{kv.NewMemory()})

	_, err := env.repo.Create(ctx, "x", Metadata{Tags: []string{"t"}})
	if err == nil {
		t.Fatal("expected create to fail")
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		t.Errorf("write failure misreported as %v", err)
	}

	all, err := env.repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("failed create must not be visible, found %d", len(all))
	}
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	r := New(kv.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.Create(ctx, fmt.Sprintf("note %d", i), Metadata{Tags: []string{"shared"}}); err != nil {
				t.Errorf("create %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	tags, err := r.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tags["shared"] != 20 {
		t.Errorf("expected 20 indexed memories, got %d", tags["shared"])
	}
}
