package graph

import (
	"math"
	"sort"
)

// SimilarNode is a node with its similarity score to a target vector.
type SimilarNode struct {
	Ref        NodeRef `json:"ref"`
	Subreddit  string  `json:"subreddit,omitempty"`
	Similarity float32 `json:"similarity"`
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 0.0 for zero-norm vectors or mismatched lengths.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// FindSimilar ranks the nodes of g carrying word vectors by similarity to
// target. The node exclude is skipped, as are nodes of another type when
// only is non-empty. Only nodes with similarity >= minSimilarity are kept.
// Results are sorted by descending similarity.
func FindSimilar(g *Graph, target []float32, exclude NodeRef, only NodeType, topN int, minSimilarity float32) []SimilarNode {
	var results []SimilarNode
	for n := range g.Nodes() {
		if len(n.WordVecs) == 0 || n.Ref() == exclude {
			continue
		}
		if only != "" && n.Type != only {
			continue
		}
		sim := CosineSimilarity(target, n.WordVecs)
		if sim >= minSimilarity {
			results = append(results, SimilarNode{
				Ref:        n.Ref(),
				Subreddit:  n.Subreddit,
				Similarity: sim,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results
}
