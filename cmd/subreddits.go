package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

var (
	subredditsValid bool
	subredditsAll   bool
	subredditsJSON  bool
)

var subredditsCmd = &cobra.Command{
	Use:   "subreddits <year>",
	Short: "List the subreddits with comments in a year, minus the exclude set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		logger, err := NewLogger(cfg)
		if err != nil {
			return err
		}

		var subs []string
		if subredditsValid {
			// the curated list is not tied to a year, but only names with
			// comments in it are kept
			listed, err := corpus.LoadSubredditList(cfg.SubredditListPath())
			if err != nil {
				return err
			}
			present, err := ListSubreddits(cfg, logger, year, !subredditsAll)
			if err != nil {
				return err
			}
			have := make(map[string]struct{}, len(present))
			for _, s := range present {
				have[s] = struct{}{}
			}
			for _, s := range listed {
				if _, ok := have[s]; ok {
					subs = append(subs, s)
				}
			}
		} else {
			subs, err = ListSubreddits(cfg, logger, year, !subredditsAll)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if subredditsJSON {
			if subs == nil {
				subs = []string{}
			}
			return json.NewEncoder(out).Encode(subs)
		}
		for _, s := range subs {
			fmt.Fprintln(out, s)
		}
		return nil
	},
}

func init() {
	subredditsCmd.Flags().BoolVar(&subredditsValid, "valid", false, "Only subreddits named in the comment count list, in its order")
	subredditsCmd.Flags().BoolVar(&subredditsAll, "all", false, "Ignore the exclude set")
	subredditsCmd.Flags().BoolVar(&subredditsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(subredditsCmd)
}
