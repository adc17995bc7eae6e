package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

var (
	countFiltered    bool
	countKeepDeleted bool
	countKeepBots    bool
)

var countCmd = &cobra.Command{
	Use:   "count <posts|comments> <subreddit> <year> [month]",
	Short: "Count the records of one partition; without a month the yearly partition is read",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind corpus.Kind
		switch args[0] {
		case "posts":
			kind = corpus.KindPost
		case "comments":
			kind = corpus.KindComment
		default:
			return fmt.Errorf("unknown record kind %q, want posts or comments", args[0])
		}
		year, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[2])
		}
		month := 0
		if len(args) == 4 {
			if month, err = strconv.Atoi(args[3]); err != nil || month < 1 || month > 12 {
				return fmt.Errorf("invalid month %q", args[3])
			}
		}

		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		part := corpus.Partition{Kind: kind, Subreddit: args[1], Year: year, Month: month}

		var n int
		if countFiltered {
			logger, err := NewLogger(cfg)
			if err != nil {
				return err
			}
			ex, err := NewExtractor(cfg, logger)
			if err != nil {
				return err
			}
			filter := ex.Filter
			filter.CleanDeleted = !countKeepDeleted
			filter.CleanBots = !countKeepBots
			for _, err := range corpus.Open(ex.Layout, part, corpus.WithFilter(filter), corpus.WithoutDocuments()).Records() {
				if err != nil {
					return err
				}
				n++
			}
		} else {
			n, err = corpus.CountRecords(cfg.Layout(), part)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", part, n)
		return nil
	},
}

func init() {
	countCmd.Flags().BoolVar(&countFiltered, "filtered", false, "Count only records that pass the author filter")
	countCmd.Flags().BoolVar(&countKeepDeleted, "keep-deleted", false, "With --filtered, keep deleted authors")
	countCmd.Flags().BoolVar(&countKeepBots, "keep-bots", false, "With --filtered, keep bots and filtered users")
	rootCmd.AddCommand(countCmd)
}
