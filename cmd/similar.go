package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/graph"
)

var (
	similarType string
	similarTopN int
	similarMin  float32
	similarJSON bool
)

var similarCmd = &cobra.Command{
	Use:   "similar <run> <type:id>",
	Short: "Find posts and comments whose embeddings are closest to a node's",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := graph.ParseRef(args[1])
		if err != nil {
			return err
		}
		var only graph.NodeType
		if similarType != "" {
			only = graph.NodeType(similarType)
			if only != graph.NodePost && only != graph.NodeComment {
				return fmt.Errorf("--type must be post or comment, got %q", similarType)
			}
		}

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
		node, err := db.GetNode(run.ID, ref)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("%s not found in run %s", ref, truncID(run.ID))
		}
		if len(node.WordVecs) == 0 {
			return fmt.Errorf("%s has no embedding in run %s", ref, truncID(run.ID))
		}
		g, err := db.LoadGraph(run.ID)
		if err != nil {
			return fmt.Errorf("loading graph: %w", err)
		}

		results := graph.FindSimilar(g, node.WordVecs, ref, only, similarTopN, similarMin)

		out := cmd.OutOrStdout()
		if similarJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		fmt.Fprintf(out, "\n  Closest to %s  r/%s\n", ref.Key(), node.Subreddit)
		if len(results) == 0 {
			fmt.Fprintln(out, "  No similar nodes found.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "  %.3f  %-30s  r/%s\n", r.Similarity, truncTitle(r.Ref.Key(), 30), r.Subreddit)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().StringVar(&similarType, "type", "", "Only rank nodes of this type (post or comment)")
	similarCmd.Flags().IntVar(&similarTopN, "top-n", 10, "Number of results")
	similarCmd.Flags().Float32Var(&similarMin, "min", 0, "Minimum cosine similarity")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(similarCmd)
}
