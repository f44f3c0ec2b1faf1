// Package relevance scores memories against a free-text query.
//
// The score is a cheap additive heuristic sized for personal corpora of a few
// hundred records: token overlap, tag matches, importance and a linear
// recency boost. Scores are unnormalized and only comparable within one call.
package relevance

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rcliao/recall/internal/model"
)

// Weights of each score component.
const (
	TokenWeight      = 2.0
	TagWeight        = 3.0
	ImportanceWeight = 2.0
	RecencyWindow    = 7.0 // days until the recency boost reaches zero
)

const msPerDay = float64(24 * time.Hour / time.Millisecond)

// Options tunes a scoring call.
type Options struct {
	// Tags adds TagWeight for every listed tag the memory carries.
	Tags []string
	// Now is the reference time for recency. Zero means time.Now().
	Now time.Time
}

func (o Options) nowMillis() int64 {
	if o.Now.IsZero() {
		return time.Now().UnixMilli()
	}
	return o.Now.UnixMilli()
}

// Scored pairs a memory with its score.
type Scored struct {
	Memory model.Memory `json:"memory"`
	Score  float64      `json:"score"`
}

// Tokenize lower-cases s and splits it on every run of characters that are
// neither letters nor digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score computes the relevance of m for query.
func Score(query string, m model.Memory, opts Options) float64 {
	return score(Tokenize(query), m, opts, opts.nowMillis())
}

func score(queryTokens []string, m model.Memory, opts Options, now int64) float64 {
	var total float64

	if len(queryTokens) > 0 {
		body := Tokenize(m.Summary + "\n" + m.Text)
		set := make(map[string]struct{}, len(body))
		for _, t := range body {
			set[t] = struct{}{}
		}
		overlap := 0
		for _, t := range queryTokens {
			if _, ok := set[t]; ok {
				overlap++
			}
		}
		total += float64(overlap) * TokenWeight
	}

	if len(opts.Tags) > 0 {
		matches := 0
		for _, t := range opts.Tags {
			if m.HasTag(t) {
				matches++
			}
		}
		total += float64(matches) * TagWeight
	}

	total += float64(m.EffectiveImportance()) * ImportanceWeight

	if m.LastUsed > 0 {
		ageDays := float64(now-m.LastUsed) / msPerDay
		if boost := RecencyWindow - ageDays; boost > 0 {
			total += boost
		}
	}

	return total
}

// Rank scores every memory and returns them by descending score. Memories
// with equal scores keep their input order.
func Rank(query string, memories []model.Memory, opts Options) []Scored {
	tokens := Tokenize(query)
	now := opts.nowMillis()

	out := make([]Scored, len(memories))
	for i, m := range memories {
		out[i] = Scored{Memory: m, Score: score(tokens, m, opts, now)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
