package store

import (
	"context"
	"strings"
	"sync"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/model"
)

// SummaryStore keeps the last chat summary recorded for each domain.
type SummaryStore struct {
	kv   kv.Store
	opts options
	mu   sync.RWMutex
}

// NewSummaryStore returns a SummaryStore persisting to backend.
func NewSummaryStore(backend kv.Store, opts ...Option) *SummaryStore {
	return &SummaryStore{kv: backend, opts: buildOptions(opts)}
}

// Save records summary as the latest one for domain.
func (s *SummaryStore) Save(ctx context.Context, domain, summary string) (*model.Summary, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, &ValidationError{Field: "domain", Message: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	sum := model.Summary{LastSummary: summary, UpdatedAt: s.opts.nowMillis()}
	all[domain] = sum

	entry, err := encode(kv.KeySummaries, all)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Save(ctx, entry.Key, entry.Value); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Get returns the summary for domain, or a *NotFoundError.
func (s *SummaryStore) Get(ctx context.Context, domain string) (*model.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	sum, ok := all[domain]
	if !ok {
		return nil, &NotFoundError{Kind: "summary", ID: domain}
	}
	return &sum, nil
}

// All returns every stored summary keyed by domain.
func (s *SummaryStore) All(ctx context.Context) (map[string]model.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadAll(ctx)
}

// Replace overwrites every stored summary.
func (s *SummaryStore) Replace(ctx context.Context, all map[string]model.Summary) error {
	if all == nil {
		all = map[string]model.Summary{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := encode(kv.KeySummaries, all)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, entry.Key, entry.Value)
}

func (s *SummaryStore) loadAll(ctx context.Context) (map[string]model.Summary, error) {
	all := map[string]model.Summary{}
	if err := load(ctx, s.kv, kv.KeySummaries, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]model.Summary{}
	}
	return all, nil
}
