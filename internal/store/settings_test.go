package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rcliao/recall/internal/kv"
	"github.com/rcliao/recall/internal/model"
)

func TestSettingsDefaultsWrittenOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	s, err := env.settings.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.SystemPrompt != "" || !s.AutoAssembleEnabled || s.EnabledDomains == nil || len(s.EnabledDomains) != 0 {
		t.Errorf("unexpected defaults: %+v", s)
	}

	raw, err := env.kv.Load(ctx, kv.KeySettings)
	if err != nil {
		t.Fatal(err)
	}
	var stored model.Settings
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("defaults not persisted: %v (%s)", err, raw)
	}
	if !stored.AutoAssembleEnabled {
		t.Errorf("persisted defaults wrong: %s", raw)
	}
}

func TestSettingsUpdateMerges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	prompt := "You are helpful."
	if _, err := env.settings.Update(ctx, model.SettingsPatch{SystemPrompt: &prompt}); err != nil {
		t.Fatal(err)
	}
	off := false
	s, err := env.settings.Update(ctx, model.SettingsPatch{AutoAssembleEnabled: &off})
	if err != nil {
		t.Fatal(err)
	}
	if s.SystemPrompt != prompt {
		t.Errorf("prompt lost on unrelated patch: %q", s.SystemPrompt)
	}
	if s.AutoAssembleEnabled {
		t.Error("expected auto-assemble off")
	}

	s, err = env.settings.Update(ctx, model.SettingsPatch{EnabledDomains: []string{"a.com", "a.com", " b.com "}})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.EnabledDomains) != 2 || s.EnabledDomains[1] != "b.com" {
		t.Errorf("unexpected domains: %v", s.EnabledDomains)
	}

	again, err := env.settings.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.SystemPrompt != prompt || again.AutoAssembleEnabled || len(again.EnabledDomains) != 2 {
		t.Errorf("settings not persisted: %+v", again)
	}
}

func TestSettingsPartialRecordCompletedFromDefaults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if err := env.kv.Save(ctx, kv.KeySettings, []byte(`{"systemPrompt":"legacy"}`)); err != nil {
		t.Fatal(err)
	}

	s, err := env.settings.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.SystemPrompt != "legacy" || !s.AutoAssembleEnabled || s.EnabledDomains == nil {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestSettingsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if err := env.kv.Save(ctx, kv.KeySettings, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.settings.Get(ctx); !errors.Is(err, kv.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sums := NewSummaryStore(env.kv, WithClock(env.clock.Now))

	if _, err := sums.Get(ctx, "example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := sums.Save(ctx, " ", "x"); !errors.Is(err, ErrValidation) {
		t.Errorf("blank domain: expected validation error, got %v", err)
	}

	if _, err := sums.Save(ctx, "example.com", "first"); err != nil {
		t.Fatal(err)
	}
	env.clock.Advance(time.Minute)
	if _, err := sums.Save(ctx, "example.com", "second"); err != nil {
		t.Fatal(err)
	}
	if _, err := sums.Save(ctx, "other.org", "elsewhere"); err != nil {
		t.Fatal(err)
	}

	got, err := sums.Get(ctx, "example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastSummary != "second" || got.UpdatedAt != env.clock.Now().UnixMilli() {
		t.Errorf("unexpected summary: %+v", got)
	}

	all, err := sums.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 domains, got %d", len(all))
	}

	if err := sums.Replace(ctx, nil); err != nil {
		t.Fatal(err)
	}
	all, err = sums.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("expected replace to clear summaries, got %v", all)
	}
}
