package store

import (
	"context"
	"strings"
	"unicode"

	"github.com/rcliao/recall/internal/relevance"
)

// DefaultMaxItems is the number of memories assembled when unspecified.
const DefaultMaxItems = 8

// AssembleParams holds parameters for context assembly.
type AssembleParams struct {
	Query    string `json:"query"`
	Domain   string `json:"domain,omitempty"` // rendered as a header only, never filters
	MaxItems int    `json:"maxItems,omitempty"`

	// TouchIncluded records a use of every included memory once assembled.
	TouchIncluded bool `json:"touch,omitempty"`
}

// AssembleResult is the assembled context.
type AssembleResult struct {
	FinalContext    string             `json:"finalContext"`
	IncludedChunks  []string           `json:"includedChunks"`
	RelevanceScores map[string]float64 `json:"relevanceScores"`
}

// Assembler builds a context block from the settings and the best ranked
// memories. It never writes unless TouchIncluded is requested.
type Assembler struct {
	memories *Repository
	settings *SettingsStore
}

// NewAssembler returns an Assembler reading from memories and settings.
func NewAssembler(memories *Repository, settings *SettingsStore) *Assembler {
	return &Assembler{memories: memories, settings: settings}
}

// Assemble ranks every stored memory against the query and renders the top
// MaxItems under the system prompt and domain headers.
func (a *Assembler) Assemble(ctx context.Context, p AssembleParams) (*AssembleResult, error) {
	maxItems := p.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	settings, err := a.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	all, err := a.memories.List(ctx)
	if err != nil {
		return nil, err
	}

	ranked := relevance.Rank(p.Query, byCreation(all), relevance.Options{Now: a.memories.opts.now()})
	if len(ranked) > maxItems {
		ranked = ranked[:maxItems]
	}

	var lines []string
	if prompt := strings.TrimSpace(settings.SystemPrompt); prompt != "" {
		lines = append(lines, "SYSTEM PROMPT:", prompt, "")
	}
	if p.Domain != "" {
		lines = append(lines, "DOMAIN: "+p.Domain, "")
	}

	result := &AssembleResult{
		IncludedChunks:  make([]string, 0, len(ranked)),
		RelevanceScores: make(map[string]float64, len(ranked)),
	}
	if len(ranked) > 0 {
		lines = append(lines, "MEMORIES:")
		for _, s := range ranked {
			header := s.Memory.Header()
			lines = append(lines, "- "+header)
			if s.Memory.Text != "" && s.Memory.Text != header {
				lines = append(lines, s.Memory.Text)
			}
			lines = append(lines, "")

			result.IncludedChunks = append(result.IncludedChunks, s.Memory.ID)
			result.RelevanceScores[s.Memory.ID] = s.Score
		}
	}
	result.FinalContext = strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace)

	if p.TouchIncluded {
		if _, err := a.memories.TouchAll(ctx, result.IncludedChunks); err != nil {
			return nil, err
		}
	}

	a.memories.opts.log.DebugContext(ctx, "context assembled",
		"candidates", len(all), "included", len(result.IncludedChunks), "chars", len(result.FinalContext))
	return result, nil
}
