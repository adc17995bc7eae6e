package network

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamleif/redditnetwork/internal/corpus"
	"github.com/williamleif/redditnetwork/internal/corpus/corpustest"
	"github.com/williamleif/redditnetwork/internal/embed"
	"github.com/williamleif/redditnetwork/internal/graph"
	"github.com/williamleif/redditnetwork/internal/window"
)

func at(month time.Month, day, hour int) int64 {
	return time.Date(2014, month, day, hour, 0, 0, 0, time.UTC).Unix()
}

func withDoc(r corpus.Record, words ...string) corpus.Record {
	r.Doc = corpustest.Doc(3, words...)
	return r
}

func part(kind corpus.Kind, sub string, month int) corpus.Partition {
	return corpus.Partition{Kind: kind, Subreddit: sub, Year: 2014, Month: month}
}

// writeCorpus lays out March and April 2014 of one subreddit. ISO week 14
// (system week 13) runs from Monday March 31st to Sunday April 6th.
func writeCorpus(t *testing.T, layout corpus.Layout, sub string) {
	t.Helper()
	corpustest.WritePartition(t, layout, part(corpus.KindPost, sub, 3), []corpus.Record{
		withDoc(corpustest.Post("p1", "alice", at(time.March, 31, 10)), "go", "generics"),
		withDoc(corpustest.Post("p2", "dave", at(time.March, 20, 8)), "old", "news"),
	})
	corpustest.WritePartition(t, layout, part(corpus.KindPost, sub, 4), nil)
	corpustest.WritePartition(t, layout, part(corpus.KindComment, sub, 3), []corpus.Record{
		withDoc(corpustest.Comment("c1", "bob", at(time.March, 31, 11), "p1", "p1"), "the", "answer"),
		withDoc(corpustest.Comment("c2", corpus.DeletedAuthor, at(time.March, 31, 12), "c1", "p1"), "the"),
		withDoc(corpustest.Comment("c3", "erin", at(time.March, 31, 13), "c2", "p1"), "the", "reply"),
		withDoc(corpustest.Comment("c4", "frank", at(time.March, 31, 14), "p2", "p2"), "the", "late"),
	})
	corpustest.WritePartition(t, layout, part(corpus.KindComment, sub, 4), []corpus.Record{
		withDoc(corpustest.Comment("c5", "carol", at(time.April, 2, 9), "c1", "p1"), "xylophone"),
		withDoc(corpustest.Comment("c6", "carol", at(time.April, 9, 9), "p1", "p1"), "next", "week"),
	})
}

type recordingObserver struct {
	mu      sync.Mutex
	results []*Result
}

func (o *recordingObserver) ObserveExtraction(res *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, res)
}

func TestExtractWeek(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	obs := &recordingObserver{}
	ex := &Extractor{Layout: layout, Width: 3, Observer: obs}

	res, err := ex.ExtractWeek(context.Background(), []string{"golang"}, 2014, 13, DefaultOptions())
	require.NoError(t, err)
	assertInvariants(t, res)

	// c2 is filtered out, so c3 loses its parent; c4 replies to a post
	// outside the week; c6 is in the following week.
	assert.Equal(t, Stats{Seen: 4, Processed: 2, SkippedMissingPost: 1, SkippedMissingParent: 1}, res.Stats)
	assert.Equal(t, "2014-w13", res.Label)
	assert.Equal(t, time.Date(2014, 3, 31, 0, 0, 0, 0, time.UTC), res.Base)
	assert.Equal(t, 1, res.Posts)

	g := res.Graph
	assert.Equal(t, 1, g.CountNodes(graph.NodePost))
	assert.Equal(t, 2, g.CountNodes(graph.NodeComment))
	assert.Equal(t, 3, g.CountNodes(graph.NodeUser))

	pn, ok := g.Node(p("p1"))
	require.True(t, ok)
	assert.InDelta(t, 10.0, pn.Time, 1e-9)
	assert.Equal(t, "golang", pn.Subreddit)

	c5, ok := g.Node(c("c5"))
	require.True(t, ok)
	assert.InDelta(t, 2*24+9, c5.Time, 1e-9)
	assert.InDelta(t, 2*24+9-10, c5.PostTimeOffset, 1e-9)
	assert.NotEqual(t, []float32{0, 0, 0}, c5.WordVecs)

	require.Len(t, obs.results, 1)
	assert.Same(t, res, obs.results[0])
}

func TestExtractWeek_KeepDeleted(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	ex := &Extractor{Layout: layout, Width: 3}

	opts := DefaultOptions()
	opts.CleanDeleted = false
	opts.IDF = false
	res, err := ex.ExtractWeek(context.Background(), []string{"golang"}, 2014, 13, opts)
	require.NoError(t, err)
	assertInvariants(t, res)
	assert.Equal(t, Stats{Seen: 5, Processed: 4, SkippedMissingPost: 1}, res.Stats)
	assert.True(t, res.Graph.Has(u(corpus.DeletedAuthor)))
}

func TestExtractWeek_IDFChangesEmbeddings(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	ex := &Extractor{Layout: layout, Width: 3}

	opts := DefaultOptions()
	weighted, err := ex.ExtractWeek(context.Background(), []string{"golang"}, 2014, 13, opts)
	require.NoError(t, err)
	opts.IDF = false
	uniform, err := ex.ExtractWeek(context.Background(), []string{"golang"}, 2014, 13, opts)
	require.NoError(t, err)

	assert.Equal(t, weighted.Stats, uniform.Stats)
	w, _ := weighted.Graph.Node(c("c1"))
	un, _ := uniform.Graph.Node(c("c1"))
	assert.NotEqual(t, w.WordVecs, un.WordVecs)
	assert.Equal(t, []float32{1.5, 1.5, 1.5}, un.WordVecs)
}

func TestExtractWeek_WrongWidthFails(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	obs := &recordingObserver{}
	ex := &Extractor{Layout: layout, Observer: obs} // default width, archive has 3

	_, err := ex.ExtractWeek(context.Background(), []string{"golang"}, 2014, 13, DefaultOptions())
	assert.ErrorIs(t, err, embed.ErrWidthMismatch)
	assert.Empty(t, obs.results)
}

func TestExtractWeek_InvalidWeekBeforeIO(t *testing.T) {
	ex := &Extractor{Layout: corpus.Layout{Root: t.TempDir()}}
	for _, week := range []int{0, 51} {
		_, err := ex.ExtractWeek(context.Background(), []string{"golang"}, 2014, week, DefaultOptions())
		assert.ErrorIs(t, err, window.ErrInvalidArgument)
		assert.NotErrorIs(t, err, corpus.ErrNotFound)
	}
}

func TestExtract_NoSubreddits(t *testing.T) {
	ex := &Extractor{Layout: corpus.Layout{Root: t.TempDir()}}
	_, err := ex.ExtractMonth(context.Background(), nil, 2014, 3, DefaultOptions())
	assert.ErrorIs(t, err, window.ErrInvalidArgument)
}

func TestExtractMonth(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	ex := &Extractor{Layout: layout, Width: 3}

	res, err := ex.ExtractMonth(context.Background(), []string{"golang"}, 2014, 3, DefaultOptions())
	require.NoError(t, err)
	assertInvariants(t, res)
	assert.Equal(t, Stats{Seen: 3, Processed: 2, SkippedMissingParent: 1}, res.Stats)
	assert.Equal(t, time.Date(2014, 3, 1, 0, 0, 0, 0, time.UTC), res.Base)
	assert.Equal(t, 2, res.Posts)
}

func TestExtractMonth_MultipleSubreddits(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	corpustest.WritePartition(t, layout, part(corpus.KindPost, "rust", 3), []corpus.Record{
		corpustest.Post("r1", "alice", at(time.March, 2, 0)),
	})
	corpustest.WritePartition(t, layout, part(corpus.KindComment, "rust", 3), []corpus.Record{
		corpustest.Comment("rc1", "bob", at(time.March, 2, 1), "r1", "r1"),
	})
	ex := &Extractor{Layout: layout, Width: 3}

	res, err := ex.ExtractMonth(context.Background(), []string{"golang", "rust"}, 2014, 3, DefaultOptions())
	require.NoError(t, err)
	assertInvariants(t, res)
	assert.Equal(t, 3, res.Posts)
	assert.Equal(t, 3, res.Stats.Processed)

	rn, ok := res.Graph.Node(p("r1"))
	require.True(t, ok)
	assert.Equal(t, "rust", rn.Subreddit)
	// alice posts in both subreddits and is one node
	assert.Equal(t, 1, len(usersNamed(res.Graph, "alice")))
}

// usersNamed collects the user nodes named name.
func usersNamed(g *graph.Graph, name string) []*graph.Node {
	var out []*graph.Node
	for n := range g.Nodes() {
		if n.Type == graph.NodeUser && n.ID == name {
			out = append(out, n)
		}
	}
	return out
}

func TestExtractYear_MissingPartition(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	ex := &Extractor{Layout: layout, Width: 3}

	_, err := ex.ExtractYear(context.Background(), []string{"golang"}, 2014, DefaultOptions())
	assert.ErrorIs(t, err, corpus.ErrNotFound)
}

func TestExtractYear_YearlyComments(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	for m := 1; m <= 12; m++ {
		var posts []corpus.Record
		if m == 6 {
			posts = []corpus.Record{corpustest.Post("p1", "alice", at(time.June, 1, 0))}
		}
		corpustest.WritePartition(t, layout, part(corpus.KindPost, "golang", m), posts)
	}
	corpustest.WritePartition(t, layout, part(corpus.KindComment, "golang", 0), []corpus.Record{
		corpustest.Comment("c1", "bob", at(time.June, 1, 1), "p1", "p1"),
	})
	ex := &Extractor{Layout: layout, Width: 3, Yearly: true}

	res, err := ex.ExtractYear(context.Background(), []string{"golang"}, 2014, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Stats{Seen: 1, Processed: 1}, res.Stats)
	assert.Equal(t, "2014", res.Label)
}

func TestExtract_Cancelled(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	ex := &Extractor{Layout: layout, Width: 3}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ex.ExtractMonth(ctx, []string{"golang"}, 2014, 3, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractEach(t *testing.T) {
	layout := corpus.Layout{Root: t.TempDir()}
	writeCorpus(t, layout, "golang")
	writeCorpus(t, layout, "rust")
	ex := &Extractor{Layout: layout, Width: 3}

	results, err := ExtractEach(context.Background(), []string{"rust", "golang"}, 2,
		func(ctx context.Context, subs []string) (*Result, error) {
			return ex.ExtractWeek(ctx, subs, 2014, 13, DefaultOptions())
		})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"rust"}, results[0].Subreddits)
	assert.Equal(t, []string{"golang"}, results[1].Subreddits)
	assert.Equal(t, results[0].Stats, results[1].Stats)
}

func TestExtractEach_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	_, err := ExtractEach(context.Background(), []string{"a", "b"}, 0,
		func(ctx context.Context, subs []string) (*Result, error) {
			if subs[0] == "b" {
				return nil, boom
			}
			return &Result{}, nil
		})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "b: boom")
}
