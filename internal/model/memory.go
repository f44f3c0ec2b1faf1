// Package model defines the core memory data types.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Importance levels.
const (
	ImportanceLow    = 1
	ImportanceMedium = 2
	ImportanceHigh   = 3
)

// DefaultSource is recorded when the caller does not name a provenance.
const DefaultSource = "manual"

// Memory represents a stored memory entry. Timestamps are milliseconds since
// the Unix epoch; LastUsed is zero until the memory is first used.
type Memory struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Summary    string   `json:"summary"`
	Importance int      `json:"importance"`
	Tags       []string `json:"tags"`
	Domain     string   `json:"domain,omitempty"`
	Source     string   `json:"source"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
	LastUsed   int64    `json:"lastUsed,omitempty"`
	UsageCount int      `json:"usageCount"`
}

// EffectiveImportance returns the importance, treating unset as medium.
func (m Memory) EffectiveImportance() int {
	if m.Importance == 0 {
		return ImportanceMedium
	}
	return m.Importance
}

// HasTag reports whether the memory carries tag.
func (m Memory) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Header is the one-line label used when rendering the memory: the trimmed
// summary when present, otherwise the first 80 runes of the text.
func (m Memory) Header() string {
	if s := strings.TrimSpace(m.Summary); s != "" {
		return s
	}
	r := []rune(m.Text)
	if len(r) > 80 {
		r = r[:80]
	}
	return string(r)
}

// MemoryPatch lists the editable fields of a memory. Nil fields keep their
// current value; a non-nil empty Tags slice clears the tags.
type MemoryPatch struct {
	Text       *string  `json:"text,omitempty"`
	Summary    *string  `json:"summary,omitempty"`
	Importance *int     `json:"importance,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Domain     *string  `json:"domain,omitempty"`
	Source     *string  `json:"source,omitempty"`
}

// Apply merges the patch over m field by field.
func (p MemoryPatch) Apply(m *Memory) {
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Summary != nil {
		m.Summary = *p.Summary
	}
	if p.Importance != nil {
		m.Importance = *p.Importance
	}
	if p.Tags != nil {
		m.Tags = NormalizeTags(p.Tags)
	}
	if p.Domain != nil {
		m.Domain = *p.Domain
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
}

// ValidImportance reports whether v is one of the allowed importance levels.
func ValidImportance(v int) bool {
	return v >= ImportanceLow && v <= ImportanceHigh
}

// ImportanceLabel returns the display name for an importance level.
func ImportanceLabel(v int) string {
	switch v {
	case ImportanceLow:
		return "low"
	case ImportanceHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseImportance accepts a level name (low, medium, high) or its number.
func ParseImportance(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ImportanceLow, nil
	case "medium", "":
		return ImportanceMedium, nil
	case "high":
		return ImportanceHigh, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !ValidImportance(v) {
		return 0, fmt.Errorf("invalid importance %q (valid: low, medium, high or 1-3)", s)
	}
	return v, nil
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-occurrence order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma-separated tag list.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}
