// Package window composes partition streams into time windows.
//
// Storage is partitioned by calendar month while weeks follow the ISO
// calendar, so a week window may need two monthly partitions. Windows are
// lazy and single-pass like the streams they wrap; building a window never
// touches the filesystem.
package window

import (
	"fmt"
	"iter"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

// Opener returns the stream of one partition. Month 0 asks for the yearly
// partition. A non-nil span restricts records to it.
type Opener func(year, month int, span *Span) corpus.Stream

// Window is a record stream covering Span.
type Window struct {
	corpus.Stream
	Span  Span
	Label string
}

// Week composes the partitions holding week of year, each filtered to the
// week. It fails with ErrInvalidArgument before opening anything.
func Week(open Opener, year, week int) (*Window, error) {
	span, err := WeekSpan(year, week)
	if err != nil {
		return nil, err
	}
	var sources []corpus.Stream
	for _, month := range weekMonths(span) {
		sources = append(sources, open(year, month, &span))
	}
	return &Window{
		Stream: Concat(sources...),
		Span:   span,
		Label:  fmt.Sprintf("%d-w%02d", year, week),
	}, nil
}

// Month wraps a single monthly partition.
func Month(open Opener, year, month int) (*Window, error) {
	span, err := MonthSpan(year, month)
	if err != nil {
		return nil, err
	}
	return &Window{
		Stream: open(year, month, nil),
		Span:   span,
		Label:  fmt.Sprintf("%d-%02d", year, month),
	}, nil
}

// Year concatenates the twelve monthly partitions of year, or reads the
// yearly partition when yearly is set.
func Year(open Opener, year int, yearly bool) *Window {
	w := &Window{Span: YearSpan(year), Label: fmt.Sprintf("%d", year)}
	if yearly {
		w.Stream = open(year, 0, nil)
		return w
	}
	sources := make([]corpus.Stream, 0, 12)
	for month := 1; month <= 12; month++ {
		sources = append(sources, open(year, month, nil))
	}
	w.Stream = Concat(sources...)
	return w
}

// Concat yields every record of each source in turn. Ordering across
// sources is source order, not time order. Iteration stops at the first
// error.
func Concat(sources ...corpus.Stream) corpus.Stream {
	if len(sources) == 1 {
		return sources[0]
	}
	return concat(sources)
}

type concat []corpus.Stream

func (c concat) Records() iter.Seq2[corpus.Record, error] {
	return func(yield func(corpus.Record, error) bool) {
		for _, src := range c {
			for rec, err := range src.Records() {
				if !yield(rec, err) || err != nil {
					return
				}
			}
		}
	}
}

// PartitionOpener builds an Opener over one subreddit's partitions of kind.
func PartitionOpener(layout corpus.Layout, kind corpus.Kind, subreddit string, opts ...corpus.Option) Opener {
	return func(year, month int, span *Span) corpus.Stream {
		partOpts := opts
		if span != nil {
			partOpts = append(append([]corpus.Option(nil), opts...), corpus.WithSpan(span.Start, span.End))
		}
		part := corpus.Partition{Kind: kind, Subreddit: subreddit, Year: year, Month: month}
		return corpus.Open(layout, part, partOpts...)
	}
}
