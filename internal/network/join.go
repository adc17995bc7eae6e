package network

import (
	"fmt"
	"time"

	"github.com/williamleif/redditnetwork/internal/corpus"
	"github.com/williamleif/redditnetwork/internal/embed"
	"github.com/williamleif/redditnetwork/internal/graph"
)

// Stats are the diagnostics of one join. Seen always equals Processed plus
// both skip counters.
type Stats struct {
	Seen                 int `json:"seen"`
	Processed            int `json:"processed"`
	SkippedMissingPost   int `json:"skipped_missing_post"`
	SkippedMissingParent int `json:"skipped_missing_parent"`
	// Deferred counts comments attached after their parent arrived.
	Deferred int `json:"deferred,omitempty"`
	// MismatchedVectors counts tokens left out of an embedding because
	// their vector had another width.
	MismatchedVectors int `json:"mismatched_vectors,omitempty"`
}

func (s Stats) String() string {
	line := fmt.Sprintf("processed %d of %d comments, %d removed for missing post and %d for missing parent",
		s.Processed, s.Seen, s.SkippedMissingPost, s.SkippedMissingParent)
	if s.MismatchedVectors > 0 {
		line += fmt.Sprintf(", %d word vectors of the wrong width ignored", s.MismatchedVectors)
	}
	return line
}

// Result is one extracted graph with its diagnostics.
type Result struct {
	Graph      *graph.Graph
	Stats      Stats
	Posts      int
	Label      string
	Subreddits []string
	Base       time.Time
	Elapsed    time.Duration
}

type joinConfig struct {
	deferLimit int
}

// JoinOption configures Join.
type JoinOption func(*joinConfig)

// WithDeferredParents buffers up to limit comments whose parent comment has
// not been seen yet, attaching them once it is. Comments still waiting when
// the stream ends, or arriving while the buffer is full, count as missing
// their parent. A limit of 0 keeps the default, which drops them at once.
func WithDeferredParents(limit int) JoinOption {
	return func(c *joinConfig) { c.deferLimit = max(limit, 0) }
}

type pendingComment struct {
	node   graph.Node
	author string
}

type joiner struct {
	b       *graph.Builder
	stats   Stats
	limit   int
	pending map[string][]pendingComment // parent comment id -> children
	waiting int
}

// Join builds the graph of a window. Every indexed post becomes a node
// linked to its author; comments are then streamed once and attached to
// their post or parent comment. Times are hours since base. Join fails
// with embed.ErrWidthMismatch when no word vector matched the aggregator's
// width.
func Join(posts *PostIndex, comments corpus.Stream, base time.Time, agg *embed.Aggregator, opts ...JoinOption) (*Result, error) {
	var cfg joinConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	j := &joiner{
		b:       graph.NewBuilder(),
		limit:   cfg.deferLimit,
		pending: make(map[string][]pendingComment),
	}
	origin := base.Unix()
	mismatchedBefore := agg.Mismatched()

	for p := range posts.All() {
		j.b.AddNode(graph.Node{
			Type:        graph.NodePost,
			ID:          p.ID,
			Score:       p.Score,
			Time:        hours(p.Timestamp - origin),
			Length:      p.Doc.Len(),
			Subreddit:   p.Subreddit,
			NumComments: p.NumComments,
			WordVecs:    agg.Aggregate(p.Doc),
		})
		author := j.b.EnsureUser(p.Author)
		if err := j.b.AddEdge(author, graph.NodeRef{Type: graph.NodePost, ID: p.ID}, graph.EdgeUserPost); err != nil {
			return nil, err
		}
	}

	for c, err := range comments.Records() {
		if err != nil {
			return nil, fmt.Errorf("joining comments: %w", err)
		}
		j.stats.Seen++

		post, ok := posts.Get(c.Post)
		if !ok {
			j.stats.SkippedMissingPost++
			continue
		}
		node := graph.Node{
			Type:           graph.NodeComment,
			ID:             c.ID,
			Score:          c.Score,
			Time:           hours(c.Timestamp - origin),
			PostTimeOffset: hours(c.Timestamp - post.Timestamp),
			Length:         c.Doc.Len(),
			Subreddit:      c.Subreddit,
			WordVecs:       agg.Aggregate(c.Doc),
		}

		if !c.IsTopLevel() && !j.b.HasNode(commentRef(c.Parent)) {
			if j.waiting >= j.limit {
				j.stats.SkippedMissingParent++
				continue
			}
			j.pending[c.Parent] = append(j.pending[c.Parent], pendingComment{node: node, author: c.Author})
			j.waiting++
			continue
		}

		parent := graph.NodeRef{Type: graph.NodePost, ID: c.Post}
		if !c.IsTopLevel() {
			parent = commentRef(c.Parent)
		}
		if err := j.attach(node, c.Author, parent); err != nil {
			return nil, err
		}
	}

	j.stats.SkippedMissingParent += j.waiting
	j.stats.MismatchedVectors = agg.Mismatched() - mismatchedBefore
	if err := agg.Check(); err != nil {
		return nil, err
	}
	return &Result{Graph: j.b.Build(), Stats: j.stats, Posts: posts.Len(), Base: base}, nil
}

// attach adds a comment and then every buffered descendant waiting on it.
func (j *joiner) attach(node graph.Node, author string, parent graph.NodeRef) error {
	type item struct {
		node   graph.Node
		author string
		parent graph.NodeRef
		late   bool
	}
	queue := []item{{node: node, author: author, parent: parent}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		j.stats.Processed++
		if it.late {
			j.stats.Deferred++
		}
		ref := it.node.Ref()
		if !j.b.AddNode(it.node) {
			// repeated comment id: the first occurrence keeps its edges
			continue
		}
		if err := j.b.AddEdge(j.b.EnsureUser(it.author), ref, graph.EdgeUserComment); err != nil {
			return err
		}
		structural := graph.EdgeCommentComment
		if it.parent.Type == graph.NodePost {
			structural = graph.EdgePostComment
		}
		if err := j.b.AddEdge(it.parent, ref, structural); err != nil {
			return err
		}

		for _, child := range j.pending[ref.ID] {
			queue = append(queue, item{node: child.node, author: child.author, parent: ref, late: true})
		}
		j.waiting -= len(j.pending[ref.ID])
		delete(j.pending, ref.ID)
	}
	return nil
}

func commentRef(id string) graph.NodeRef {
	return graph.NodeRef{Type: graph.NodeComment, ID: id}
}

func hours(seconds int64) float64 {
	return float64(seconds) / 3600
}
