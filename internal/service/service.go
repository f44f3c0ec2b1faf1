// Package service is the single entry point the CLI and the HTTP API use to
// reach the memory repository, settings, summaries and context assembly.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/logging"
	"github.com/rcliao/recall/internal/metrics"
	"github.com/rcliao/recall/internal/model"
	"github.com/rcliao/recall/internal/store"
	"github.com/rcliao/recall/internal/summarize"
)

// Service wires the stores together over one backend.
type Service struct {
	kv         kv.Store
	repo       *store.Repository
	settings   *store.SettingsStore
	summaries  *store.SummaryStore
	assembler  *store.Assembler
	summarizer summarize.Summarizer
	metrics    *metrics.Manager
	log        *slog.Logger
	now        store.Clock
	maxItems   int
}

// Option configures a Service.
type Option func(*Service)

// WithSummarizer sets the summarizer used when AddOptions.Summarize is set.
func WithSummarizer(s summarize.Summarizer) Option {
	return func(svc *Service) { svc.summarizer = s }
}

// WithMetrics records operation metrics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.log = l }
}

// WithClock overrides the time source of the service and its stores.
func WithClock(c store.Clock) Option {
	return func(svc *Service) { svc.now = c }
}

// WithMaxItems sets the assembly size used when a request leaves it unset.
func WithMaxItems(n int) Option {
	return func(svc *Service) { svc.maxItems = n }
}

// New returns a Service over backend. storeOpts are passed to every store.
func New(backend kv.Store, storeOpts []store.Option, opts ...Option) *Service {
	svc := &Service{
		kv:         backend,
		summarizer: summarize.Truncate{},
		metrics:    metrics.NoOpManager(),
		log:        logging.Discard(),
		now:        time.Now,
		maxItems:   store.DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(svc)
	}

	storeOpts = append([]store.Option{store.WithClock(svc.now)}, storeOpts...)
	storeOpts = append(storeOpts, store.WithLogger(svc.log))
	svc.repo = store.New(backend, storeOpts...)
	svc.settings = store.NewSettingsStore(backend, storeOpts...)
	svc.summaries = store.NewSummaryStore(backend, storeOpts...)
	svc.assembler = store.NewAssembler(svc.repo, svc.settings)
	return svc
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.kv.Close()
}

// AddOptions holds the optional fields of a new memory.
type AddOptions struct {
	ID         string   `json:"id,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Importance int      `json:"importance,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Source     string   `json:"source,omitempty"`

	// Summarize generates a summary when none is supplied.
	Summarize bool `json:"summarize,omitempty"`
}

// AddMemory stores a new memory.
func (s *Service) AddMemory(ctx context.Context, text string, opts AddOptions) (m *model.Memory, err error) {
	defer func() { s.metrics.RecordOperation("add", err) }()

	summary := opts.Summary
	if opts.Summarize && strings.TrimSpace(summary) == "" && strings.TrimSpace(text) != "" {
		summary, err = s.summarizer.Summarize(ctx, text)
		if err != nil {
			s.log.WarnContext(ctx, "summarizer failed, storing without summary", "error", err)
			summary, err = "", nil
		}
	}

	return s.repo.Create(ctx, text, store.Metadata{
		ID:         opts.ID,
		Summary:    summary,
		Importance: opts.Importance,
		Tags:       opts.Tags,
		Domain:     opts.Domain,
		Source:     opts.Source,
	})
}

// GetMemory returns the memory with id.
func (s *Service) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	return s.repo.Get(ctx, id)
}

// UpdateMemory merges patch into the memory with id.
func (s *Service) UpdateMemory(ctx context.Context, id string, patch model.MemoryPatch) (m *model.Memory, err error) {
	defer func() { s.metrics.RecordOperation("update", err) }()
	return s.repo.Update(ctx, id, patch)
}

// DeleteMemory removes the memory with id and reports whether it existed.
func (s *Service) DeleteMemory(ctx context.Context, id string) (deleted bool, err error) {
	defer func() { s.metrics.RecordOperation("delete", err) }()
	return s.repo.Delete(ctx, id)
}

// TouchUsage records a use of the memory with id.
func (s *Service) TouchUsage(ctx context.Context, id string) (m *model.Memory, err error) {
	defer func() { s.metrics.RecordOperation("touch", err) }()
	return s.repo.TouchUsage(ctx, id)
}

// ListMemories returns every memory, oldest first.
func (s *Service) ListMemories(ctx context.Context) ([]model.Memory, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Memory, 0, len(all))
	for _, m := range all {
		out = append(out, m)
	}
	sortByCreation(out)
	return out, nil
}

// ListByDomain returns the memories stored for domain.
func (s *Service) ListByDomain(ctx context.Context, domain string) ([]model.Memory, error) {
	return s.repo.ListByDomain(ctx, domain)
}

// ListByTag returns the memories carrying tag.
func (s *Service) ListByTag(ctx context.Context, tag string) ([]model.Memory, error) {
	return s.repo.ListByTag(ctx, tag)
}

// Search finds memories by substring and tags.
func (s *Service) Search(ctx context.Context, p store.SearchParams) ([]model.Memory, error) {
	return s.repo.Search(ctx, p)
}

// Tags returns every tag with its live memory count.
func (s *Service) Tags(ctx context.Context) (map[string]int, error) {
	return s.repo.Tags(ctx)
}

// Reindex rebuilds the tag index.
func (s *Service) Reindex(ctx context.Context) error {
	return s.repo.Reindex(ctx)
}

// Stats returns repository statistics and refreshes the memory gauge.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetMemories(st.TotalMemories)
	return st, nil
}

// Assemble builds a context block. A zero MaxItems uses the service default.
func (s *Service) Assemble(ctx context.Context, p store.AssembleParams) (res *store.AssembleResult, err error) {
	if p.MaxItems <= 0 {
		p.MaxItems = s.maxItems
	}
	start := time.Now()
	defer func() {
		s.metrics.RecordOperation("assemble", err)
		if err == nil {
			s.metrics.RecordAssemble(len(res.IncludedChunks), time.Since(start))
		}
	}()
	return s.assembler.Assemble(ctx, p)
}

// ContextResponse statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ContextResponse is the outcome of GetAssembledContext. Status is "ok" with
// the result fields inlined, or "error" with Error set.
type ContextResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	*store.AssembleResult
}

// GetAssembledContext assembles a context and reports failures in the
// response instead of returning them.
func (s *Service) GetAssembledContext(ctx context.Context, p store.AssembleParams) ContextResponse {
	res, err := s.Assemble(ctx, p)
	if err != nil {
		s.log.ErrorContext(ctx, "context assembly failed", "error", err)
		return ContextResponse{Status: StatusError, Error: err.Error()}
	}
	return ContextResponse{Status: StatusOK, AssembleResult: res}
}

// Settings returns the current settings.
func (s *Service) Settings(ctx context.Context) (*model.Settings, error) {
	return s.settings.Get(ctx)
}

// AutoAssembleAllowed reports whether the settings let context be assembled
// automatically for domain.
func (s *Service) AutoAssembleAllowed(ctx context.Context, domain string) (bool, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	return settings.AllowsDomain(domain), nil
}

// UpdateSettings merges patch into the settings.
func (s *Service) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	return s.settings.Update(ctx, patch)
}

// SaveSummary records the latest chat summary for domain.
func (s *Service) SaveSummary(ctx context.Context, domain, summary string) (*model.Summary, error) {
	return s.summaries.Save(ctx, domain, summary)
}

// GetSummary returns the latest chat summary for domain.
func (s *Service) GetSummary(ctx context.Context, domain string) (*model.Summary, error) {
	return s.summaries.Get(ctx, domain)
}
