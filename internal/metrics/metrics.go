package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/williamleif/redditnetwork/internal/graph"
	"github.com/williamleif/redditnetwork/internal/network"
)

var (
	Extractions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redditnet_extractions_total",
		Help: "Total graph extractions",
	})
	Comments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "redditnet_comments_total",
		Help: "Comments seen by the join, by outcome",
	}, []string{"outcome"})
	Posts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redditnet_posts_indexed_total",
		Help: "Posts indexed across extractions",
	})
	MismatchedVectors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redditnet_mismatched_vectors_total",
		Help: "Token vectors left out of embeddings for having the wrong width",
	})
	ExtractionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redditnet_extraction_duration_seconds",
		Help:    "Extraction duration seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
	})
	GraphNodes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redditnet_graph_nodes",
		Help: "Nodes in the last extracted graph, by type",
	}, []string{"type"})
	GraphEdges = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redditnet_graph_edges",
		Help: "Edges in the last extracted graph, by type",
	}, []string{"type"})
)

// Comment outcomes.
const (
	OutcomeProcessed     = "processed"
	OutcomeMissingPost   = "skipped_missing_post"
	OutcomeMissingParent = "skipped_missing_parent"
	OutcomeDeferred      = "deferred"
)

func init() {
	prometheus.MustRegister(Extractions, Comments, Posts, MismatchedVectors, ExtractionDuration, GraphNodes, GraphEdges)
}

// Observer records every extraction it is told about.
type Observer struct{}

var _ network.Observer = Observer{}

// ObserveExtraction implements network.Observer.
func (Observer) ObserveExtraction(res *network.Result) { Record(res) }

// Record adds one extraction's diagnostics to the collectors.
func Record(res *network.Result) {
	Extractions.Inc()
	Posts.Add(float64(res.Posts))
	Comments.WithLabelValues(OutcomeProcessed).Add(float64(res.Stats.Processed))
	Comments.WithLabelValues(OutcomeMissingPost).Add(float64(res.Stats.SkippedMissingPost))
	Comments.WithLabelValues(OutcomeMissingParent).Add(float64(res.Stats.SkippedMissingParent))
	Comments.WithLabelValues(OutcomeDeferred).Add(float64(res.Stats.Deferred))
	MismatchedVectors.Add(float64(res.Stats.MismatchedVectors))
	ExtractionDuration.Observe(res.Elapsed.Seconds())

	if res.Graph == nil {
		return
	}
	for _, t := range []graph.NodeType{graph.NodeUser, graph.NodePost, graph.NodeComment} {
		GraphNodes.WithLabelValues(string(t)).Set(float64(res.Graph.CountNodes(t)))
	}
	for _, t := range []graph.EdgeType{graph.EdgeUserPost, graph.EdgeUserComment, graph.EdgePostComment, graph.EdgeCommentComment} {
		GraphEdges.WithLabelValues(string(t)).Set(float64(res.Graph.CountEdges(t)))
	}
}

// WriteTextfile writes every registered metric to path in the text format
// read by the node exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
