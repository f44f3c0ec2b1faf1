// Package summarize produces the short summary shown as a memory's header.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rcliao/recall/internal/config"
)

// Summarizer turns a memory's text into a one-line summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// DefaultMaxRunes is the Truncate limit when none is configured.
const DefaultMaxRunes = 120

const ellipsis = "…"

// Truncate summarizes by keeping the leading words of the text.
type Truncate struct {
	MaxRunes int
}

// Summarize collapses whitespace and cuts the text at the last word boundary
// that fits, marking the cut with an ellipsis. The result never exceeds
// MaxRunes runes.
func (t Truncate) Summarize(_ context.Context, text string) (string, error) {
	limit := t.MaxRunes
	if limit <= 0 {
		limit = DefaultMaxRunes
	}
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat, nil
	}

	cut := string(runes[:limit-1])
	if runes[limit-1] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ,;:.-") + ellipsis, nil
}

// New returns the Summarizer selected by cfg.
func New(cfg config.SummarizerConfig, opts ...option.RequestOption) (Summarizer, error) {
	switch cfg.Provider {
	case "", "truncate":
		return Truncate{MaxRunes: cfg.MaxRunes}, nil
	case "anthropic":
		if cfg.APIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.APIKey))
		}
		return NewAnthropic(cfg.Model, cfg.MaxTokens, opts...), nil
	}
	return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
}
