package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/graph"
)

var (
	analyzeJSON      bool
	analyzeSubreddit string
	analyzeTopN      int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <run>",
	Short: "Analyze a stored graph: components, user activity, reply depth",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		db, err := OpenStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(args[0])
		if err != nil {
			return err
		}
		g, err := db.LoadGraph(run.ID)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		snap := graph.NewSnapshot(g)
		if analyzeSubreddit != "" {
			snap = snap.FilterToSubreddit(analyzeSubreddit)
		}
		report := graph.ComputeTopology(snap, analyzeTopN)

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		embedded, err := db.CountNodesWithEmbeddings(run.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n  Run %s  %s  %v\n", truncID(run.ID), run.Label, run.Subreddits)
		fmt.Fprintf(out, "  Embedded: %d of %d stored nodes carry word vectors\n", embedded, g.NodeCount())
		printHumanReadable(out, report, snap)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().StringVar(&analyzeSubreddit, "subreddit", "", "Scope analysis to one subreddit and its users")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top users to show")
	rootCmd.AddCommand(analyzeCmd)
}

func printHumanReadable(w io.Writer, t *graph.TopologyReport, snap *graph.Snapshot) {
	fmt.Fprintln(w, "\n  TOPOLOGY")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Nodes: %d (%d users, %d posts, %d comments)\n", t.TotalNodes,
		t.NodesByType[graph.NodeUser], t.NodesByType[graph.NodePost], t.NodesByType[graph.NodeComment])
	fmt.Fprintf(w, "  Edges: %d  Components: %d\n", t.TotalEdges, t.NumComponents)
	fmt.Fprintf(w, "  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)

	if t.IsolatedCount > 0 {
		fmt.Fprintf(w, "  Isolated: %d nodes without edges\n", t.IsolatedCount)
		limit := min(5, len(t.IsolatedIDs))
		for _, id := range t.IsolatedIDs[:limit] {
			fmt.Fprintf(w, "    - %s\n", describe(snap.Nodes[id], id))
		}
		if t.IsolatedCount > 5 {
			fmt.Fprintf(w, "    ... and %d more\n", t.IsolatedCount-5)
		}
	}

	if t.MaxReplyDepth > 0 {
		fmt.Fprintf(w, "  Deepest reply chain: %d  (%s)\n", t.MaxReplyDepth, describe(snap.Nodes[t.DeepestComment], t.DeepestComment))
	}

	fmt.Fprintln(w, "\n  User activity (posts + comments):")
	for _, b := range t.ActivityHistogram {
		if b.Count > 0 {
			barWidth := max(int(math.Log2(float64(b.Count)))+2, 1)
			fmt.Fprintf(w, "    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(t.TopUsers) > 0 {
		fmt.Fprintln(w, "\n  Most active users:")
		for _, u := range t.TopUsers {
			fmt.Fprintf(w, "    %-20s posts=%d comments=%d degree=%d\n",
				truncTitle(u.ID, 20), u.Posts, u.Comments, u.Degree)
		}
	}
	fmt.Fprintln(w)
}

func describe(n *graph.Node, key string) string {
	if n == nil {
		return key
	}
	if n.Subreddit == "" {
		return n.Ref().String()
	}
	return fmt.Sprintf("%s in r/%s", n.Ref(), n.Subreddit)
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
