// Package graph holds the typed user/post/comment multigraph produced by an
// extraction, and the analyses run over it.
package graph

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// NodeType is the namespace of a node identifier.
type NodeType string

const (
	NodeUser    NodeType = "user"
	NodePost    NodeType = "post"
	NodeComment NodeType = "comment"
)

// EdgeType names the relation an edge stands for.
type EdgeType string

const (
	EdgeUserPost       EdgeType = "user_post"
	EdgeUserComment    EdgeType = "user_comment"
	EdgePostComment    EdgeType = "post_comment"
	EdgeCommentComment EdgeType = "comment_comment"
)

// ErrUnknownNode is returned when an edge endpoint has not been added.
var ErrUnknownNode = errors.New("unknown node")

// NodeRef identifies a node. A user and a post may share a raw id.
type NodeRef struct {
	Type NodeType
	ID   string
}

// Key renders the ref as "type:id".
func (r NodeRef) Key() string { return string(r.Type) + ":" + r.ID }

func (r NodeRef) String() string { return r.Key() }

func (r NodeRef) MarshalText() ([]byte, error) { return []byte(r.Key()), nil }

func (r *NodeRef) UnmarshalText(b []byte) error {
	ref, err := ParseRef(string(b))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ParseRef is the inverse of Key.
func ParseRef(key string) (NodeRef, error) {
	typ, id, ok := strings.Cut(key, ":")
	if !ok {
		return NodeRef{}, fmt.Errorf("invalid node key %q", key)
	}
	switch t := NodeType(typ); t {
	case NodeUser, NodePost, NodeComment:
		return NodeRef{Type: t, ID: id}, nil
	default:
		return NodeRef{}, fmt.Errorf("invalid node type %q", typ)
	}
}

// Node is a graph vertex and its features. User nodes carry only Type and
// ID. Time and PostTimeOffset are in hours.
type Node struct {
	Type           NodeType
	ID             string
	Score          int
	Time           float64
	PostTimeOffset float64 // comments only
	Length         int
	Subreddit      string
	NumComments    *int // posts only, when the metadata has it
	WordVecs       []float32
}

// Ref returns the node's identity.
func (n *Node) Ref() NodeRef { return NodeRef{Type: n.Type, ID: n.ID} }

// Edge is a directed, typed relation between two nodes.
type Edge struct {
	From NodeRef
	To   NodeRef
	Type EdgeType
}

// Graph is an immutable directed multigraph. Nodes and edges are kept in
// insertion order.
type Graph struct {
	nodes []*Node
	index map[NodeRef]int
	edges []Edge
}

// Node returns the node with the given ref.
func (g *Graph) Node(ref NodeRef) (*Node, bool) {
	i, ok := g.index[ref]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Has reports whether ref is a node of g.
func (g *Graph) Has(ref NodeRef) bool {
	_, ok := g.index[ref]
	return ok
}

// Nodes yields every node in insertion order. Callers must not modify them.
func (g *Graph) Nodes() iter.Seq[*Node] { return slices.Values(g.nodes) }

// Edges yields every edge in insertion order.
func (g *Graph) Edges() iter.Seq[Edge] { return slices.Values(g.edges) }

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// CountNodes returns the number of nodes of type t.
func (g *Graph) CountNodes(t NodeType) int {
	n := 0
	for _, node := range g.nodes {
		if node.Type == t {
			n++
		}
	}
	return n
}

// CountEdges returns the number of edges of type t.
func (g *Graph) CountEdges(t EdgeType) int {
	n := 0
	for _, e := range g.edges {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Builder accumulates nodes and edges. Build hands the result over; the
// builder must not be used afterwards.
type Builder struct {
	g *Graph
}

func NewBuilder() *Builder {
	return &Builder{g: &Graph{index: make(map[NodeRef]int)}}
}

func (b *Builder) graph() *Graph {
	if b.g == nil {
		panic("graph: builder used after Build")
	}
	return b.g
}

// AddNode adds n unless a node with the same ref exists. It reports whether
// the node was added; the first node with a given ref wins.
func (b *Builder) AddNode(n Node) bool {
	g := b.graph()
	ref := n.Ref()
	if _, ok := g.index[ref]; ok {
		return false
	}
	g.index[ref] = len(g.nodes)
	g.nodes = append(g.nodes, &n)
	return true
}

// HasNode reports whether ref has been added.
func (b *Builder) HasNode(ref NodeRef) bool {
	_, ok := b.graph().index[ref]
	return ok
}

// EnsureUser adds a user node for name on first sight and returns its ref.
func (b *Builder) EnsureUser(name string) NodeRef {
	b.AddNode(Node{Type: NodeUser, ID: name})
	return NodeRef{Type: NodeUser, ID: name}
}

// AddEdge appends an edge. Both endpoints must already exist.
func (b *Builder) AddEdge(from, to NodeRef, t EdgeType) error {
	g := b.graph()
	if _, ok := g.index[from]; !ok {
		return fmt.Errorf("adding %s edge: %w: %s", t, ErrUnknownNode, from)
	}
	if _, ok := g.index[to]; !ok {
		return fmt.Errorf("adding %s edge: %w: %s", t, ErrUnknownNode, to)
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Type: t})
	return nil
}

// Build returns the finished graph.
func (b *Builder) Build() *Graph {
	g := b.graph()
	b.g = nil
	return g
}
