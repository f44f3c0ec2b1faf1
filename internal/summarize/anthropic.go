package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = anthropic.ModelClaude3_5HaikuLatest

const systemPrompt = "You write one-line summaries of personal notes. " +
	"Reply with the summary only: at most 15 words, no quotes, no trailing period."

// ErrEmptySummary is returned when the model replies without any text.
var ErrEmptySummary = errors.New("model returned an empty summary")

// Anthropic summarizes with a Claude model.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic returns an Anthropic summarizer. Without option.WithAPIKey the
// client reads ANTHROPIC_API_KEY from the environment.
func NewAnthropic(model string, maxTokens int64, opts ...option.RequestOption) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     m,
		maxTokens: maxTokens,
	}
}

// Summarize asks the model for a summary of text.
func (a *Anthropic) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	summary := strings.Join(strings.Fields(sb.String()), " ")
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}
