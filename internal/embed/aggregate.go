package embed

import (
	"errors"
	"fmt"
	"math"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

// SIF is the smoothing constant a in a/(p(w)+a).
const SIF = 1e-3

// DefaultWidth is the vector width of the English model the archive was
// processed with.
const DefaultWidth = 300

// ErrWidthMismatch is returned when the documents carry vectors, but none
// of the configured width.
var ErrWidthMismatch = errors.New("word vector width mismatch")

// Aggregator reduces a document to one vector of fixed width. It counts the
// tokens it pools and rejects, so it is not safe for concurrent use.
type Aggregator struct {
	width int
	table *FrequencyTable

	used       int
	mismatched int
	seenWidth  int // width of the last rejected vector
}

// NewAggregator returns an aggregator. A nil table gives every token
// weight 1.
func NewAggregator(width int, table *FrequencyTable) *Aggregator {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Aggregator{width: width, table: table}
}

// Width returns the output vector width.
func (a *Aggregator) Width() int { return a.width }

// Weighted reports whether frequency weighting is active.
func (a *Aggregator) Weighted() bool { return a.table != nil }

// Weight returns the pooling weight of a surface form.
func (a *Aggregator) Weight(token string) float64 {
	if a.table == nil {
		return 1
	}
	return SIF / (a.table.Frequency(token) + SIF)
}

// Used returns how many token vectors have been pooled.
func (a *Aggregator) Used() int { return a.used }

// Mismatched returns how many tokens carried a vector of another width.
func (a *Aggregator) Mismatched() int { return a.mismatched }

// Check fails with ErrWidthMismatch when vectors were seen but every one of
// them had the wrong width, which means the configured width does not
// match the archive.
func (a *Aggregator) Check() error {
	if a.mismatched > 0 && a.used == 0 {
		return fmt.Errorf("%w: %d token vectors of width %d, expected %d",
			ErrWidthMismatch, a.mismatched, a.seenWidth, a.width)
	}
	return nil
}

// Aggregate returns the weighted mean of the document's token vectors.
// Tokens without a vector are ignored; tokens whose vector has another
// width are ignored and counted in Mismatched. The zero vector is returned
// when no token qualifies or the mean is not finite.
func (a *Aggregator) Aggregate(doc *corpus.Document) []float32 {
	out := make([]float32, a.width)
	if doc == nil {
		return out
	}

	sum := make([]float64, a.width)
	n := 0
	for _, tok := range doc.Tokens {
		if !tok.HasVector() {
			continue
		}
		if len(tok.Vector) != a.width {
			a.mismatched++
			a.seenWidth = len(tok.Vector)
			continue
		}
		w := a.Weight(tok.Lower)
		for i, v := range tok.Vector {
			sum[i] += w * float64(v)
		}
		n++
	}
	a.used += n
	if n == 0 {
		return out
	}

	for i, s := range sum {
		mean := s / float64(n)
		f := float32(mean)
		if math.IsNaN(mean) || math.IsInf(float64(f), 0) {
			return make([]float32, a.width)
		}
		out[i] = f
	}
	return out
}
