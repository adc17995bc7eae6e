package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/williamleif/redditnetwork/internal/config"
	"github.com/williamleif/redditnetwork/internal/corpus"
	"github.com/williamleif/redditnetwork/internal/db"
	"github.com/williamleif/redditnetwork/internal/logging"
	"github.com/williamleif/redditnetwork/internal/metrics"
	"github.com/williamleif/redditnetwork/internal/network"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "redditnetwork",
	Short:         "Extract user/post/comment networks from a pre-processed Reddit archive",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

// LoadConfig discovers and loads the configuration; without a config file
// the defaults apply. A .env file in the working directory may supply the
// REDDITNET_* variables.
func LoadConfig() (config.Config, error) {
	config.LoadDotEnv()
	cfg := config.Default()
	if path := config.Discover(configPath); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg.ResolveEnv()
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the stderr logger for cfg.
func NewLogger(cfg config.Config) (*log.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level)
}

// OpenStore opens the graph store named by the config.
func OpenStore(cfg config.Config) (*db.DB, error) {
	return db.OpenDB(cfg.Store.Path)
}

// NewExtractor builds an extractor over the configured archive. The
// filtered-author list is optional: a missing file is logged and skipped.
func NewExtractor(cfg config.Config, logger *log.Logger) (*network.Extractor, error) {
	var blocked map[string]struct{}
	if path := cfg.FilteredUsersPath(); path != "" {
		var err error
		blocked, err = corpus.LoadBlockedAuthors(path)
		switch {
		case errors.Is(err, corpus.ErrNotFound):
			logger.Warn("filtered users file not found, filtering bots by name only", "path", path)
		case err != nil:
			return nil, err
		default:
			logger.Debug("loaded filtered users", "path", path, "count", len(blocked))
		}
	}
	return &network.Extractor{
		Layout:   cfg.Layout(),
		Filter:   corpus.AuthorFilter{Blocked: blocked},
		Width:    cfg.Extract.EmbeddingWidth,
		Yearly:   cfg.Data.Yearly,
		Logger:   logger,
		Observer: metrics.Observer{},
	}, nil
}

// allSubreddits selects every subreddit with comments in the window's year.
const allSubreddits = "all"

// ListSubreddits returns the subreddits with comments in year, minus the
// configured exclude set when exclude is true. A missing exclude set file
// excludes nothing.
func ListSubreddits(cfg config.Config, logger *log.Logger, year int, exclude bool) ([]string, error) {
	var skip map[string]struct{}
	if path := cfg.ExcludeSetPath(); exclude && path != "" {
		var err error
		skip, err = corpus.LoadExcludeSet(path)
		switch {
		case errors.Is(err, corpus.ErrNotFound):
			logger.Debug("exclude set not found, listing every subreddit", "path", path)
		case err != nil:
			return nil, err
		}
	}
	return corpus.Subreddits(cfg.Layout(), year, skip)
}

// splitList parses a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
