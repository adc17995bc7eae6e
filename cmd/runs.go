package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/db"
	"github.com/williamleif/redditnetwork/internal/graph"
)

var runsJSON bool

// runListing is a stored run with the sizes of its persisted graph.
type runListing struct {
	db.Run
	Edges         map[graph.EdgeType]int `json:"edges"`
	EmbeddedNodes int                    `json:"embedded_nodes"`
}

func listRuns(store *db.DB) ([]runListing, error) {
	runs, err := store.ListRuns()
	if err != nil {
		return nil, err
	}
	listings := make([]runListing, len(runs))
	for i, r := range runs {
		listings[i].Run = r
		if listings[i].Edges, err = store.CountEdges(r.ID); err != nil {
			return nil, fmt.Errorf("counting edges of %s: %w", truncID(r.ID), err)
		}
		if listings[i].EmbeddedNodes, err = store.CountNodesWithEmbeddings(r.ID); err != nil {
			return nil, fmt.Errorf("counting embeddings of %s: %w", truncID(r.ID), err)
		}
	}
	return listings, nil
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored extraction runs",
	Args:  cobra.NoArgs,
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

		runs, err := listRuns(db)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if runsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs stored.")
			return nil
		}
		for _, r := range runs {
			created := time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04")
			edges := 0
			for _, n := range r.Edges {
				edges += n
			}
			fmt.Fprintf(out, "  %s  %-10s  %-24s  %s  posts=%d comments=%d/%d edges=%d embedded=%d\n",
				truncID(r.ID), r.Label, truncTitle(strings.Join(r.Subreddits, ","), 24), created,
				r.Posts, r.Stats.Processed, r.Stats.Seen, edges, r.EmbeddedNodes)
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run>",
	Short: "Delete a stored run and its graph",
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
		if err := db.DeleteRun(run.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s (%s)\n", truncID(run.ID), run.Label)
		return nil
	},
}

func init() {
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "Output as JSON")
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
