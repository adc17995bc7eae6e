package graph

import "sort"

// UserActivity counts what one user authored.
type UserActivity struct {
	ID       string `json:"id"`
	Posts    int    `json:"posts"`
	Comments int    `json:"comments"`
	Degree   int    `json:"degree"`
}

// Total is posts plus comments.
func (u UserActivity) Total() int { return u.Posts + u.Comments }

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalNodes        int              `json:"total_nodes"`
	TotalEdges        int              `json:"total_edges"`
	NodesByType       map[NodeType]int `json:"nodes_by_type"`
	EdgesByType       map[EdgeType]int `json:"edges_by_type"`
	NumComponents     int              `json:"num_components"`
	LargestComponent  int              `json:"largest_component"`
	SmallestComponent int              `json:"smallest_component"`
	IsolatedCount     int              `json:"isolated_count"`
	IsolatedIDs       []string         `json:"isolated_ids"`
	ActivityHistogram []DegreeBucket   `json:"activity_histogram"`
	TopUsers          []UserActivity   `json:"top_users"`
	MaxReplyDepth     int              `json:"max_reply_depth"`
	DeepestComment    string           `json:"deepest_comment,omitempty"`
}

// ComputeTopology analyzes graph topology: weakly connected components,
// isolated nodes, how much each user authored, and the longest reply chain.
func ComputeTopology(snap *Snapshot, topN int) *TopologyReport {
	report := &TopologyReport{
		TotalNodes:        len(snap.Nodes),
		TotalEdges:        len(snap.Edges),
		NodesByType:       make(map[NodeType]int),
		EdgesByType:       make(map[EdgeType]int),
		ActivityHistogram: defaultHistogram(),
	}
	if report.TotalNodes == 0 {
		return report
	}

	nodeIDs := snap.NodeIDs()
	pos := make(map[string]int, len(nodeIDs))
	for i, id := range nodeIDs {
		pos[id] = i
		report.NodesByType[snap.Nodes[id].Type]++
	}

	// Weakly connected components
	uf := NewUnionFind(len(nodeIDs))
	users := make(map[string]*UserActivity)
	for _, e := range snap.Edges {
		report.EdgesByType[e.Type]++
		uf.Union(pos[e.From.Key()], pos[e.To.Key()])

		switch e.Type {
		case EdgeUserPost:
			activity(users, e.From.Key()).Posts++
		case EdgeUserComment:
			activity(users, e.From.Key()).Comments++
		}
	}

	components := uf.Components()
	report.NumComponents = len(components)
	report.SmallestComponent = len(nodeIDs)
	for _, c := range components {
		report.LargestComponent = max(report.LargestComponent, len(c))
		report.SmallestComponent = min(report.SmallestComponent, len(c))
	}

	var isolated []string
	for _, id := range nodeIDs {
		if len(snap.Adj[id]) == 0 {
			isolated = append(isolated, id)
		}
	}
	report.IsolatedCount = len(isolated)
	if len(isolated) > topN {
		isolated = isolated[:topN]
	}
	report.IsolatedIDs = isolated

	// Users in log-scale buckets of authored items
	var top []UserActivity
	for _, id := range nodeIDs {
		if snap.Nodes[id].Type != NodeUser {
			continue
		}
		u := activity(users, id)
		u.ID = snap.Nodes[id].ID
		u.Degree = len(snap.Adj[id])
		report.ActivityHistogram[degreeBucket(u.Total())].Count++
		top = append(top, *u)
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Total() > top[j].Total() })
	if len(top) > topN {
		top = top[:topN]
	}
	report.TopUsers = top

	for key, d := range snap.ReplyDepths() {
		if d > report.MaxReplyDepth || (d == report.MaxReplyDepth && key < report.DeepestComment) {
			report.MaxReplyDepth = d
			report.DeepestComment = key
		}
	}

	return report
}

func activity(users map[string]*UserActivity, key string) *UserActivity {
	u, ok := users[key]
	if !ok {
		u = &UserActivity{}
		users[key] = u
	}
	return u
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
