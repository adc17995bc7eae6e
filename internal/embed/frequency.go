// Package embed pools token vectors into one vector per document using
// smoothed inverse-frequency (SIF) weights gathered in a first pass over
// the corpus.
package embed

import (
	"fmt"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

// FrequencyTable holds corpus token counts. It is read-only once built.
type FrequencyTable struct {
	counts map[string]int
	total  int
}

// NewFrequencyTable builds a table from explicit counts; total is the sum.
func NewFrequencyTable(counts map[string]int) *FrequencyTable {
	ft := &FrequencyTable{counts: make(map[string]int, len(counts))}
	for tok, n := range counts {
		ft.counts[tok] = n
		ft.total += n
	}
	return ft
}

// Count returns how often a surface form occurred.
func (f *FrequencyTable) Count(token string) int { return f.counts[token] }

// Total returns the number of tokens counted.
func (f *FrequencyTable) Total() int { return f.total }

// Vocabulary returns the number of distinct surface forms.
func (f *FrequencyTable) Vocabulary() int { return len(f.counts) }

// Frequency returns the token's relative frequency, 0 for an unseen token
// or an empty table.
func (f *FrequencyTable) Frequency(token string) float64 {
	if f.total == 0 {
		return 0
	}
	return float64(f.counts[token]) / float64(f.total)
}

// BuildFrequencies consumes s once, counting every token of every document.
// It returns the table and the number of documents scanned.
func BuildFrequencies(s corpus.Stream) (*FrequencyTable, int, error) {
	ft := &FrequencyTable{counts: make(map[string]int)}
	docs := 0
	for rec, err := range s.Records() {
		if err != nil {
			return nil, docs, fmt.Errorf("frequency pass: %w", err)
		}
		docs++
		if rec.Doc == nil {
			continue
		}
		for _, tok := range rec.Doc.Tokens {
			ft.counts[tok.Lower]++
			ft.total++
		}
	}
	return ft, docs, nil
}
