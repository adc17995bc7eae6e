package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamleif/redditnetwork/internal/graph"
	"github.com/williamleif/redditnetwork/internal/network"
)

// setupTestDB opens a fresh database file under the test's temp dir.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(filepath.Join(t.TempDir(), "graphs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleResult(t *testing.T) *network.Result {
	t.Helper()
	n := 4
	b := graph.NewBuilder()
	post := graph.NodeRef{Type: graph.NodePost, ID: "p1"}
	comment := graph.NodeRef{Type: graph.NodeComment, ID: "c1"}
	b.AddNode(graph.Node{Type: graph.NodePost, ID: "p1", Score: 10, Time: 1.5, Length: 3,
		Subreddit: "golang", NumComments: &n, WordVecs: []float32{0.25, -1}})
	require.NoError(t, b.AddEdge(b.EnsureUser("alice"), post, graph.EdgeUserPost))
	b.AddNode(graph.Node{Type: graph.NodeComment, ID: "c1", Score: -2, Time: 2.5, PostTimeOffset: 1,
		Length: 7, Subreddit: "golang", WordVecs: []float32{0, 0}})
	require.NoError(t, b.AddEdge(b.EnsureUser("bob"), comment, graph.EdgeUserComment))
	require.NoError(t, b.AddEdge(post, comment, graph.EdgePostComment))

	return &network.Result{
		Graph:      b.Build(),
		Stats:      network.Stats{Seen: 3, Processed: 1, SkippedMissingPost: 1, SkippedMissingParent: 1, MismatchedVectors: 2},
		Posts:      1,
		Label:      "2014-w13",
		Subreddits: []string{"golang", "rust"},
		Base:       time.Date(2014, 3, 31, 0, 0, 0, 0, time.UTC),
		Elapsed:    250 * time.Millisecond,
	}
}

func TestOpenDB_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphs.db")
	d, err := OpenDB(path)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = OpenDB(path)
	require.NoError(t, err)
	defer d.Close()

	var mode string
	require.NoError(t, d.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	d := setupTestDB(t)
	res := sampleResult(t)

	id, err := d.SaveRun(res, network.DefaultOptions())
	require.NoError(t, err)

	run, err := d.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, "2014-w13", run.Label)
	assert.Equal(t, []string{"golang", "rust"}, run.Subreddits)
	assert.Equal(t, res.Base.Unix(), run.Base)
	assert.Equal(t, res.Stats, run.Stats)
	assert.Equal(t, int64(250), run.ElapsedMs)
	assert.True(t, run.IDF)
	assert.True(t, run.CleanBots)

	g, err := d.LoadGraph(id)
	require.NoError(t, err)
	assert.Equal(t, res.Graph.NodeCount(), g.NodeCount())
	assert.Equal(t, res.Graph.EdgeCount(), g.EdgeCount())

	var want, got []graph.Edge
	for e := range res.Graph.Edges() {
		want = append(want, e)
	}
	for e := range g.Edges() {
		got = append(got, e)
	}
	assert.Equal(t, want, got)

	p, ok := g.Node(graph.NodeRef{Type: graph.NodePost, ID: "p1"})
	require.True(t, ok)
	orig, _ := res.Graph.Node(graph.NodeRef{Type: graph.NodePost, ID: "p1"})
	assert.Equal(t, orig, p)

	u, ok := g.Node(graph.NodeRef{Type: graph.NodeUser, ID: "alice"})
	require.True(t, ok)
	assert.Nil(t, u.NumComments)
	assert.Nil(t, u.WordVecs)
}

func TestGetRun_Prefix(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.SaveRun(sampleResult(t), network.DefaultOptions())
	require.NoError(t, err)

	run, err := d.GetRun(id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)

	_, err = d.GetRun("zzzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = d.SaveRun(sampleResult(t), network.DefaultOptions())
	require.NoError(t, err)
	_, err = d.GetRun("")
	assert.ErrorIs(t, err, ErrAmbiguousRun)
}

func TestListRuns(t *testing.T) {
	d := setupTestDB(t)
	runs, err := d.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	for i := 0; i < 3; i++ {
		_, err := d.SaveRun(sampleResult(t), network.Options{})
		require.NoError(t, err)
	}
	runs, err = d.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.False(t, runs[0].IDF)
}

func TestGetNodeAndEmbedding(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.SaveRun(sampleResult(t), network.DefaultOptions())
	require.NoError(t, err)

	ref := graph.NodeRef{Type: graph.NodeComment, ID: "c1"}
	n, err := d.GetNode(id, ref)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 7, n.Length)
	assert.InDelta(t, 1.0, n.PostTimeOffset, 1e-9)

	missing, err := d.GetNode(id, graph.NodeRef{Type: graph.NodeComment, ID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	post, err := d.GetNode(id, graph.NodeRef{Type: graph.NodePost, ID: "p1"})
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, []float32{0.25, -1}, post.WordVecs)

	count, err := d.CountNodesWithEmbeddings(id)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	edges, err := d.CountEdges(id)
	require.NoError(t, err)
	assert.Equal(t, 1, edges[graph.EdgePostComment])
}

func TestDeleteRun_Cascades(t *testing.T) {
	d := setupTestDB(t)
	id, err := d.SaveRun(sampleResult(t), network.DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, d.DeleteRun(id))
	assert.ErrorIs(t, d.DeleteRun(id), ErrRunNotFound)

	var nodes, edges int
	require.NoError(t, d.Conn().QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodes))
	require.NoError(t, d.Conn().QueryRow("SELECT COUNT(*) FROM edges").Scan(&edges))
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestSaveRun_NoGraph(t *testing.T) {
	d := setupTestDB(t)
	_, err := d.SaveRun(&network.Result{}, network.Options{})
	assert.Error(t, err)
}
