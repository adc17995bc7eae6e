package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/config"
	"github.com/williamleif/redditnetwork/internal/graph"
	"github.com/williamleif/redditnetwork/internal/metrics"
	"github.com/williamleif/redditnetwork/internal/network"
)

var (
	extractSubreddits   string
	extractNoIDF        bool
	extractKeepDeleted  bool
	extractKeepBots     bool
	extractSeparate     bool
	extractJobs         int
	extractDeferParents int
	extractSave         bool
	extractJSON         bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build the user/post/comment graph of a time window",
}

var extractWeekCmd = &cobra.Command{
	Use:   "week <year> <week>",
	Short: "Extract one week (1-50) of a year",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, week, err := parseInts(args[0], args[1])
		if err != nil {
			return err
		}
		return runExtract(cmd, year, func(ctx context.Context, ex *network.Extractor, subs []string, opts network.Options) (*network.Result, error) {
			return ex.ExtractWeek(ctx, subs, year, week, opts)
		})
	},
}

var extractMonthCmd = &cobra.Command{
	Use:   "month <year> <month>",
	Short: "Extract one calendar month",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := parseInts(args[0], args[1])
		if err != nil {
			return err
		}
		return runExtract(cmd, year, func(ctx context.Context, ex *network.Extractor, subs []string, opts network.Options) (*network.Result, error) {
			return ex.ExtractMonth(ctx, subs, year, month, opts)
		})
	},
}

var extractYearCmd = &cobra.Command{
	Use:   "year <year>",
	Short: "Extract a whole calendar year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		return runExtract(cmd, year, func(ctx context.Context, ex *network.Extractor, subs []string, opts network.Options) (*network.Result, error) {
			return ex.ExtractYear(ctx, subs, year, opts)
		})
	},
}

func init() {
	f := extractCmd.PersistentFlags()
	f.StringVarP(&extractSubreddits, "subreddit", "s", "", `Comma-separated subreddits, or "all" (required)`)
	f.BoolVar(&extractNoIDF, "no-idf", false, "Plain mean of word vectors instead of frequency weighting")
	f.BoolVar(&extractKeepDeleted, "keep-deleted", false, "Keep content by deleted authors")
	f.BoolVar(&extractKeepBots, "keep-bots", false, "Keep content by bots and filtered users")
	f.BoolVar(&extractSeparate, "separate", false, "Build one graph per subreddit")
	f.IntVar(&extractJobs, "jobs", 0, "Concurrent extractions with --separate (default from config)")
	f.IntVar(&extractDeferParents, "defer-parents", -1, "Buffer up to N comments whose parent arrives later (default from config)")
	f.BoolVar(&extractSave, "save", false, "Store the graph in the database")
	f.BoolVar(&extractJSON, "json", false, "Output as JSON")
	extractCmd.MarkPersistentFlagRequired("subreddit")

	extractCmd.AddCommand(extractWeekCmd, extractMonthCmd, extractYearCmd)
	rootCmd.AddCommand(extractCmd)
}

type extractFunc func(ctx context.Context, ex *network.Extractor, subs []string, opts network.Options) (*network.Result, error)

func runExtract(cmd *cobra.Command, year int, run extractFunc) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	ex, err := NewExtractor(cfg, logger)
	if err != nil {
		return err
	}

	subs := splitList(extractSubreddits)
	if len(subs) == 1 && subs[0] == allSubreddits {
		if subs, err = ListSubreddits(cfg, logger, year, true); err != nil {
			return err
		}
		logger.Info("extracting every subreddit", "year", year, "count", len(subs))
	}
	opts := extractOptions(cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var results []*network.Result
	if extractSeparate {
		jobs := cfg.Extract.Jobs
		if extractJobs > 0 {
			jobs = extractJobs
		}
		results, err = network.ExtractEach(ctx, subs, jobs, func(ctx context.Context, s []string) (*network.Result, error) {
			return run(ctx, ex, s, opts)
		})
	} else {
		var res *network.Result
		res, err = run(ctx, ex, subs, opts)
		results = []*network.Result{res}
	}
	if err != nil {
		return err
	}

	var runIDs []string
	if extractSave {
		store, err := OpenStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		for _, res := range results {
			id, err := store.SaveRun(res, opts)
			if err != nil {
				return err
			}
			logger.Info("saved run", "id", id, "label", res.Label, "store", cfg.Store.Path)
			runIDs = append(runIDs, id)
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("writing metrics textfile", "path", cfg.Metrics.Textfile, "err", err)
		}
	}

	out := cmd.OutOrStdout()
	if extractJSON {
		summaries := make([]extractSummary, len(results))
		for i, res := range results {
			summaries[i] = summarize(res)
			if i < len(runIDs) {
				summaries[i].RunID = runIDs[i]
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	for i, res := range results {
		id := ""
		if i < len(runIDs) {
			id = runIDs[i]
		}
		printExtraction(out, res, id)
	}
	return nil
}

// extractOptions applies the command-line overrides to the configured
// extraction options.
func extractOptions(cfg config.Config) network.Options {
	opts := cfg.Options()
	if extractNoIDF {
		opts.IDF = false
	}
	if extractKeepDeleted {
		opts.CleanDeleted = false
	}
	if extractKeepBots {
		opts.CleanBots = false
	}
	if extractDeferParents >= 0 {
		opts.DeferParents = extractDeferParents
	}
	return opts
}

type extractSummary struct {
	RunID      string                 `json:"run_id,omitempty"`
	Label      string                 `json:"label"`
	Subreddits []string               `json:"subreddits"`
	Base       time.Time              `json:"base"`
	Posts      int                    `json:"posts"`
	Stats      network.Stats          `json:"stats"`
	Nodes      map[graph.NodeType]int `json:"nodes"`
	Edges      map[graph.EdgeType]int `json:"edges"`
	ElapsedMs  int64                  `json:"elapsed_ms"`
}

func summarize(res *network.Result) extractSummary {
	s := extractSummary{
		Label:      res.Label,
		Subreddits: res.Subreddits,
		Base:       res.Base,
		Posts:      res.Posts,
		Stats:      res.Stats,
		Nodes:      make(map[graph.NodeType]int),
		Edges:      make(map[graph.EdgeType]int),
		ElapsedMs:  res.Elapsed.Milliseconds(),
	}
	for _, t := range []graph.NodeType{graph.NodeUser, graph.NodePost, graph.NodeComment} {
		s.Nodes[t] = res.Graph.CountNodes(t)
	}
	for _, t := range []graph.EdgeType{graph.EdgeUserPost, graph.EdgeUserComment, graph.EdgePostComment, graph.EdgeCommentComment} {
		s.Edges[t] = res.Graph.CountEdges(t)
	}
	return s
}

func printExtraction(w io.Writer, res *network.Result, runID string) {
	s := summarize(res)
	fmt.Fprintf(w, "\n  %s  %v\n", s.Label, s.Subreddits)
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Posts: %d  %s\n", s.Posts, s.Stats)
	if s.Stats.Deferred > 0 {
		fmt.Fprintf(w, "  Deferred: %d comments attached after their parent\n", s.Stats.Deferred)
	}
	fmt.Fprintf(w, "  Nodes: %d users, %d posts, %d comments\n",
		s.Nodes[graph.NodeUser], s.Nodes[graph.NodePost], s.Nodes[graph.NodeComment])
	fmt.Fprintf(w, "  Edges: %d user_post, %d user_comment, %d post_comment, %d comment_comment\n",
		s.Edges[graph.EdgeUserPost], s.Edges[graph.EdgeUserComment],
		s.Edges[graph.EdgePostComment], s.Edges[graph.EdgeCommentComment])
	fmt.Fprintf(w, "  Took %s\n", res.Elapsed.Round(time.Millisecond))
	if runID != "" {
		fmt.Fprintf(w, "  Saved as %s\n", truncID(runID))
	}
}

func parseInts(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", a)
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", b)
	}
	return x, y, nil
}
