package graph

import "sort"

// Snapshot holds a graph keyed by node key with precomputed adjacency lists.
type Snapshot struct {
	Nodes  map[string]*Node
	Edges  []Edge
	Adj    map[string][]string // undirected
	OutAdj map[string][]string // directed: source -> targets
	InAdj  map[string][]string // directed: target -> sources
	// Parent maps a comment key to the key of the post or comment it replies to.
	Parent map[string]string
}

// NewSnapshot builds a Snapshot from g.
func NewSnapshot(g *Graph) *Snapshot {
	var nodes []*Node
	var edges []Edge
	if g != nil {
		nodes = g.nodes
		edges = g.edges
	}
	return newSnapshot(nodes, edges)
}

func newSnapshot(nodes []*Node, edges []Edge) *Snapshot {
	nodeMap := make(map[string]*Node, len(nodes))
	adj := make(map[string][]string, len(nodes))
	outAdj := make(map[string][]string, len(nodes))
	inAdj := make(map[string][]string, len(nodes))
	parent := make(map[string]string)

	for _, n := range nodes {
		key := n.Ref().Key()
		nodeMap[key] = n
		adj[key] = nil
		outAdj[key] = nil
		inAdj[key] = nil
	}

	kept := make([]Edge, 0, len(edges))
	for _, e := range edges {
		src, dst := e.From.Key(), e.To.Key()
		if _, ok := nodeMap[src]; !ok {
			continue
		}
		if _, ok := nodeMap[dst]; !ok {
			continue
		}
		kept = append(kept, e)
		adj[src] = append(adj[src], dst)
		adj[dst] = append(adj[dst], src)
		outAdj[src] = append(outAdj[src], dst)
		inAdj[dst] = append(inAdj[dst], src)
		if e.Type == EdgePostComment || e.Type == EdgeCommentComment {
			parent[dst] = src
		}
	}

	return &Snapshot{
		Nodes:  nodeMap,
		Edges:  kept,
		Adj:    adj,
		OutAdj: outAdj,
		InAdj:  inAdj,
		Parent: parent,
	}
}

// FilterToSubreddit returns a snapshot of the posts and comments of one
// subreddit plus the users connected to them.
func (s *Snapshot) FilterToSubreddit(subreddit string) *Snapshot {
	included := make(map[string]bool)
	for key, n := range s.Nodes {
		if n.Type != NodeUser && n.Subreddit == subreddit {
			included[key] = true
		}
	}
	for key := range included {
		for _, nb := range s.Adj[key] {
			if s.Nodes[nb].Type == NodeUser {
				included[nb] = true
			}
		}
	}

	var nodes []*Node
	for _, key := range s.NodeIDs() {
		if included[key] {
			nodes = append(nodes, s.Nodes[key])
		}
	}
	var edges []Edge
	for _, e := range s.Edges {
		if included[e.From.Key()] && included[e.To.Key()] {
			edges = append(edges, e)
		}
	}
	return newSnapshot(nodes, edges)
}

// NodeIDs returns a sorted list of all node keys (for deterministic output)
func (s *Snapshot) NodeIDs() []string {
	ids := make([]string, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReplyDepths returns, for every comment whose reply chain reaches a post,
// the number of structural edges between it and the post: 1 for a
// top-level comment.
func (s *Snapshot) ReplyDepths() map[string]int {
	const unreachable = -1
	depth := make(map[string]int)
	for key, n := range s.Nodes {
		if n.Type != NodeComment {
			continue
		}
		var chain []string
		onChain := make(map[string]bool)
		base := unreachable
		current := key
		for {
			if d, ok := depth[current]; ok {
				base = d
				break
			}
			node, ok := s.Nodes[current]
			if !ok || onChain[current] {
				break
			}
			if node.Type == NodePost {
				base = 0
				break
			}
			chain = append(chain, current)
			onChain[current] = true
			p, ok := s.Parent[current]
			if !ok {
				break
			}
			current = p
		}
		for i := len(chain) - 1; i >= 0; i-- {
			if base != unreachable {
				base++
			}
			depth[chain[i]] = base
		}
	}
	for key, d := range depth {
		if d == unreachable {
			delete(depth, key)
		}
	}
	return depth
}
