// Package network turns the posts and comments of a time window into a
// user/post/comment graph.
//
// Extraction is two passes over the comments of a window. The first counts
// token frequencies for embedding weights; the second joins every comment
// against the window's posts and adds it to the graph. Each pass reads a
// freshly opened window because partition streams cannot be replayed.
package network

import (
	"fmt"
	"iter"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

// PostIndex maps post ids to records and remembers insertion order.
type PostIndex struct {
	order []string
	posts map[string]corpus.Record
}

// IndexPosts consumes s. A repeated id replaces the stored record but keeps
// its first position. Any stream error aborts indexing.
func IndexPosts(s corpus.Stream) (*PostIndex, error) {
	idx := &PostIndex{posts: make(map[string]corpus.Record)}
	for rec, err := range s.Records() {
		if err != nil {
			return nil, fmt.Errorf("indexing posts: %w", err)
		}
		idx.put(rec)
	}
	return idx, nil
}

func (x *PostIndex) put(rec corpus.Record) {
	if _, ok := x.posts[rec.ID]; !ok {
		x.order = append(x.order, rec.ID)
	}
	x.posts[rec.ID] = rec
}

// Has reports whether a post with id is indexed.
func (x *PostIndex) Has(id string) bool {
	_, ok := x.posts[id]
	return ok
}

// Get returns the post with id.
func (x *PostIndex) Get(id string) (corpus.Record, bool) {
	rec, ok := x.posts[id]
	return rec, ok
}

// Len returns the number of distinct posts.
func (x *PostIndex) Len() int { return len(x.order) }

// All yields the posts in insertion order.
func (x *PostIndex) All() iter.Seq[corpus.Record] {
	return func(yield func(corpus.Record) bool) {
		for _, id := range x.order {
			if !yield(x.posts[id]) {
				return
			}
		}
	}
}
