package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/model"
)

// SettingsStore holds the single preferences record.
type SettingsStore struct {
	kv   kv.Store
	opts options
	mu   sync.Mutex
}

// NewSettingsStore returns a SettingsStore persisting to backend.
func NewSettingsStore(backend kv.Store, opts ...Option) *SettingsStore {
	return &SettingsStore{kv: backend, opts: buildOptions(opts)}
}

// storedSettings distinguishes absent fields from zero values so a record
// written by an older version is completed from the defaults.
type storedSettings struct {
	SystemPrompt        *string  `json:"systemPrompt"`
	AutoAssembleEnabled *bool    `json:"autoAssembleEnabled"`
	EnabledDomains      []string `json:"enabledDomains"`
}

// Get returns the settings, writing the defaults on first access.
func (s *SettingsStore) Get(ctx context.Context) (*model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx)
}

func (s *SettingsStore) get(ctx context.Context) (*model.Settings, error) {
	data, err := s.kv.Load(ctx, kv.KeySettings)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := decode(kv.KeySettings, data, &raw); err != nil {
		return nil, err
	}

	settings := model.DefaultSettings()
	if len(raw) == 0 {
		if err := s.save(ctx, settings); err != nil {
			return nil, err
		}
		s.opts.log.InfoContext(ctx, "settings initialized with defaults")
		return &settings, nil
	}

	var stored storedSettings
	if err := decode(kv.KeySettings, data, &stored); err != nil {
		return nil, err
	}
	if stored.SystemPrompt != nil {
		settings.SystemPrompt = *stored.SystemPrompt
	}
	if stored.AutoAssembleEnabled != nil {
		settings.AutoAssembleEnabled = *stored.AutoAssembleEnabled
	}
	if stored.EnabledDomains != nil {
		settings.EnabledDomains = stored.EnabledDomains
	}
	return &settings, nil
}

// Update merges patch into the current settings and persists the result.
func (s *SettingsStore) Update(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.get(ctx)
	if err != nil {
		return nil, err
	}
	patch.Apply(settings)
	if err := s.save(ctx, *settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Replace overwrites the settings record wholesale.
func (s *SettingsStore) Replace(ctx context.Context, settings model.Settings) error {
	if settings.EnabledDomains == nil {
		settings.EnabledDomains = []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, settings)
}

func (s *SettingsStore) save(ctx context.Context, settings model.Settings) error {
	entry, err := encode(kv.KeySettings, settings)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, entry.Key, entry.Value)
}
