package network

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/williamleif/redditnetwork/internal/corpus"
	"github.com/williamleif/redditnetwork/internal/embed"
	"github.com/williamleif/redditnetwork/internal/logging"
	"github.com/williamleif/redditnetwork/internal/window"
)

// Options select the per-run behaviour of an extraction.
type Options struct {
	CleanDeleted bool
	CleanBots    bool
	IDF          bool
	// DeferParents bounds the buffer of comments waiting for their parent;
	// 0 drops them immediately.
	DeferParents int
}

// DefaultOptions matches the archive's usual processing: deleted authors and
// bots removed, frequency-weighted embeddings.
func DefaultOptions() Options {
	return Options{CleanDeleted: true, CleanBots: true, IDF: true}
}

// Observer is told about every finished extraction.
type Observer interface {
	ObserveExtraction(res *Result)
}

// Extractor reads windows of a corpus and builds their graphs.
type Extractor struct {
	Layout corpus.Layout
	// Filter supplies the blocked author set; its clean flags are taken
	// from Options on every call.
	Filter corpus.AuthorFilter
	Width  int
	// Yearly reads year windows of comments from yearly partitions.
	Yearly   bool
	Logger   *log.Logger
	Observer Observer
}

// windowFunc builds a fresh window of one kind over open.
type windowFunc func(kind corpus.Kind, open window.Opener) (*window.Window, error)

// ExtractWeek builds the graph of one week (1..50) of year.
func (e *Extractor) ExtractWeek(ctx context.Context, subreddits []string, year, week int, opts Options) (*Result, error) {
	if err := window.ValidateWeek(week); err != nil {
		return nil, err
	}
	return e.extract(ctx, subreddits, opts, func(_ corpus.Kind, open window.Opener) (*window.Window, error) {
		return window.Week(open, year, week)
	})
}

// ExtractMonth builds the graph of one calendar month.
func (e *Extractor) ExtractMonth(ctx context.Context, subreddits []string, year, month int, opts Options) (*Result, error) {
	if _, err := window.MonthSpan(year, month); err != nil {
		return nil, err
	}
	return e.extract(ctx, subreddits, opts, func(_ corpus.Kind, open window.Opener) (*window.Window, error) {
		return window.Month(open, year, month)
	})
}

// ExtractYear builds the graph of one calendar year.
func (e *Extractor) ExtractYear(ctx context.Context, subreddits []string, year int, opts Options) (*Result, error) {
	return e.extract(ctx, subreddits, opts, func(kind corpus.Kind, open window.Opener) (*window.Window, error) {
		return window.Year(open, year, e.Yearly && kind == corpus.KindComment), nil
	})
}

// ExtractEach runs extract once per subreddit, at most jobs at a time, and
// returns the results in argument order. The first failure cancels the rest.
func ExtractEach(ctx context.Context, subreddits []string, jobs int,
	extract func(ctx context.Context, subreddits []string) (*Result, error)) ([]*Result, error) {
	results := make([]*Result, len(subreddits))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, sub := range subreddits {
		g.Go(func() error {
			res, err := extract(ctx, []string{sub})
			if err != nil {
				return fmt.Errorf("%s: %w", sub, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Extractor) logger() *log.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}

// open composes one window per subreddit, in argument order.
func (e *Extractor) open(kind corpus.Kind, subreddits []string, filter corpus.AuthorFilter, wf windowFunc) (*window.Window, error) {
	var streams []corpus.Stream
	var first *window.Window
	for _, sub := range subreddits {
		w, err := wf(kind, window.PartitionOpener(e.Layout, kind, sub, corpus.WithFilter(filter)))
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = w
		}
		streams = append(streams, w.Stream)
	}
	return &window.Window{Stream: window.Concat(streams...), Span: first.Span, Label: first.Label}, nil
}

func (e *Extractor) extract(ctx context.Context, subreddits []string, opts Options, wf windowFunc) (*Result, error) {
	if len(subreddits) == 0 {
		return nil, fmt.Errorf("%w: no subreddits", window.ErrInvalidArgument)
	}
	logger := e.logger()
	started := time.Now()

	filter := e.Filter
	filter.CleanDeleted = opts.CleanDeleted
	filter.CleanBots = opts.CleanBots

	posts, err := e.open(corpus.KindPost, subreddits, filter, wf)
	if err != nil {
		return nil, err
	}
	logger.Debug("indexing posts", "window", posts.Label, "subreddits", subreddits)
	index, err := IndexPosts(withContext(ctx, posts))
	if err != nil {
		return nil, err
	}

	var table *embed.FrequencyTable
	if opts.IDF {
		first, err := e.open(corpus.KindComment, subreddits, filter, wf)
		if err != nil {
			return nil, err
		}
		var docs int
		table, docs, err = embed.BuildFrequencies(withContext(ctx, first))
		if err != nil {
			return nil, err
		}
		logger.Debug("frequency pass done", "window", first.Label, "documents", docs,
			"tokens", table.Total(), "vocabulary", table.Vocabulary())
	}

	comments, err := e.open(corpus.KindComment, subreddits, filter, wf)
	if err != nil {
		return nil, err
	}
	var joinOpts []JoinOption
	if opts.DeferParents > 0 {
		joinOpts = append(joinOpts, WithDeferredParents(opts.DeferParents))
	}
	agg := embed.NewAggregator(e.Width, table)
	res, err := Join(index, withContext(ctx, comments), comments.Span.Start, agg, joinOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", comments.Label, err)
	}
	if res.Stats.MismatchedVectors > 0 {
		logger.Warn("word vectors of the wrong width ignored", "window", comments.Label,
			"count", res.Stats.MismatchedVectors, "width", agg.Width())
	}
	res.Label = comments.Label
	res.Subreddits = subreddits
	res.Elapsed = time.Since(started)

	logger.Info(res.Stats.String(), "window", res.Label, "subreddits", subreddits,
		"posts", res.Posts, "nodes", res.Graph.NodeCount(), "edges", res.Graph.EdgeCount(),
		"elapsed", res.Elapsed.Round(time.Millisecond))
	if e.Observer != nil {
		e.Observer.ObserveExtraction(res)
	}
	return res, nil
}

type ctxStream struct {
	ctx context.Context
	s   corpus.Stream
}

// withContext stops s with the context's error once ctx is done.
func withContext(ctx context.Context, s corpus.Stream) corpus.Stream {
	return ctxStream{ctx: ctx, s: s}
}

func (c ctxStream) Records() iter.Seq2[corpus.Record, error] {
	return func(yield func(corpus.Record, error) bool) {
		for rec, err := range c.s.Records() {
			if err == nil {
				if cerr := c.ctx.Err(); cerr != nil {
					yield(corpus.Record{}, cerr)
					return
				}
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}
