package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rcliao/recall/internal/model"
	"github.com/rcliao/recall/internal/store"
)

// ExportVersion is written into every export.
const ExportVersion = 1

// Export is a full backup of memories, summaries and settings.
type Export struct {
	Version    int             `json:"version"`
	ExportedAt int64           `json:"exportedAt"`
	Memories   json.RawMessage `json:"memories,omitempty"`
	Summaries  json.RawMessage `json:"summaries,omitempty"`
	Settings   json.RawMessage `json:"settings,omitempty"`
}

// ExportAll returns the memories, summaries and settings. Settings are read
// through the settings store, so a store that never saved any exports the
// complete defaults.
func (s *Service) ExportAll(ctx context.Context) (exp *Export, err error) {
	defer func() { s.metrics.RecordOperation("export", err) }()

	memories, err := s.repo.ExportAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export memories: %w", err)
	}
	summaries, err := s.summaries.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export summaries: %w", err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}

	exp = &Export{Version: ExportVersion, ExportedAt: s.now().UnixMilli()}
	for _, section := range []struct {
		name string
		v    any
		dst  *json.RawMessage
	}{
		{"memories", memories, &exp.Memories},
		{"summaries", summaries, &exp.Summaries},
		{"settings", settings, &exp.Settings},
	} {
		data, err := json.Marshal(section.v)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", section.name, err)
		}
		*section.dst = data
	}
	return exp, nil
}

// ImportAll restores every section present in exp, replacing what is stored.
// Memories are checked and their tag index rebuilt; absent sections are left
// untouched.
func (s *Service) ImportAll(ctx context.Context, exp Export) (err error) {
	defer func() { s.metrics.RecordOperation("import", err) }()

	var (
		memories  map[string]model.Memory
		summaries map[string]model.Summary
		settings  *model.Settings
	)
	if present(exp.Memories) {
		if err := json.Unmarshal(exp.Memories, &memories); err != nil {
			return &store.ValidationError{Field: "memories", Message: err.Error()}
		}
	}
	if present(exp.Summaries) {
		if err := json.Unmarshal(exp.Summaries, &summaries); err != nil {
			return &store.ValidationError{Field: "summaries", Message: err.Error()}
		}
	}
	if present(exp.Settings) {
		d := model.DefaultSettings()
		settings = &d
		if err := json.Unmarshal(exp.Settings, settings); err != nil {
			return &store.ValidationError{Field: "settings", Message: err.Error()}
		}
	}

	if memories != nil {
		n, err := s.repo.Import(ctx, memories)
		if err != nil {
			return err
		}
		s.log.InfoContext(ctx, "import: memories restored", "count", n)
	}
	if summaries != nil {
		if err := s.summaries.Replace(ctx, summaries); err != nil {
			return err
		}
	}
	if settings != nil {
		if err := s.settings.Replace(ctx, *settings); err != nil {
			return err
		}
	}
	return nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func sortByCreation(memories []model.Memory) {
	sort.Slice(memories, func(i, j int) bool {
		if memories[i].CreatedAt != memories[j].CreatedAt {
			return memories[i].CreatedAt < memories[j].CreatedAt
		}
		return memories[i].ID < memories[j].ID
	})
}
