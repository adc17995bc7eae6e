// Package config loads the YAML configuration shared by every command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/williamleif/redditnetwork/internal/corpus"
	"github.com/williamleif/redditnetwork/internal/embed"
	"github.com/williamleif/redditnetwork/internal/network"
)

// FileName is the config file looked for when walking up from the working
// directory.
const FileName = "redditnetwork.yaml"

// Environment overrides.
const (
	EnvConfig   = "REDDITNET_CONFIG"
	EnvDataHome = "REDDITNET_DATA_HOME"
	EnvStore    = "REDDITNET_STORE"
	EnvLogLevel = "REDDITNET_LOG_LEVEL"
)

// Config is the application's configuration model.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Extract ExtractConfig `yaml:"extract"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type DataConfig struct {
	// Root of the pre-processed archive.
	Home        string `yaml:"home"`
	PostsDir    string `yaml:"postsDir"`
	CommentsDir string `yaml:"commentsDir"`
	// TSV of authors to drop with the bots, first column. Relative paths
	// resolve against Home.
	FilteredUsers string `yaml:"filteredUsers"`
	// JSON array of subreddits left out of "all"; TSV whose first column
	// lists the valid subreddits. Both resolve against Home.
	ExcludeSet    string `yaml:"excludeSet"`
	SubredditList string `yaml:"subredditList"`
	// "title" or "text"
	PostDocument string `yaml:"postDocument"`
	// Comments for whole years live in yearly partitions.
	Yearly bool `yaml:"yearly"`
}

type ExtractConfig struct {
	CleanDeleted   bool `yaml:"cleanDeleted"`
	CleanBots      bool `yaml:"cleanBots"`
	IDF            bool `yaml:"idf"`
	EmbeddingWidth int  `yaml:"embeddingWidth"`
	DeferParents   int  `yaml:"deferParents"`
	// Concurrent extractions when subreddits are extracted separately.
	Jobs int `yaml:"jobs"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	// Prometheus textfile written after each run; empty disables it.
	Textfile string `yaml:"textfile"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Data: DataConfig{
			Home:          "data",
			PostsDir:      corpus.DefaultPostsDir,
			CommentsDir:   corpus.DefaultCommentsDir,
			FilteredUsers: "filtered_users.txt",
			ExcludeSet:    "exclude_set.json",
			SubredditList: "total_comment_counts.tsv",
			PostDocument:  corpus.PostDocumentTitle,
		},
		Extract: ExtractConfig{
			CleanDeleted:   true,
			CleanBots:      true,
			IDF:            true,
			EmbeddingWidth: embed.DefaultWidth,
			Jobs:           4,
		},
		Store: StoreConfig{Path: "redditnetwork.db"},
		Log:   LogConfig{Level: "info"},
	}
}

// LoadDotEnv reads .env from the working directory into the environment.
// Variables already set win. It reports whether a file was loaded.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// ResolveEnv lets environment variables override file settings.
func (c *Config) ResolveEnv() {
	if v := os.Getenv(EnvDataHome); v != "" {
		c.Data.Home = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects settings no extraction could run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Data.Home == "" {
		errs = append(errs, errors.New("data.home is empty"))
	}
	switch c.Data.PostDocument {
	case corpus.PostDocumentTitle, corpus.PostDocumentText:
	default:
		errs = append(errs, fmt.Errorf("data.postDocument %q: want %q or %q",
			c.Data.PostDocument, corpus.PostDocumentTitle, corpus.PostDocumentText))
	}
	if c.Extract.EmbeddingWidth <= 0 {
		errs = append(errs, fmt.Errorf("extract.embeddingWidth %d must be positive", c.Extract.EmbeddingWidth))
	}
	if c.Extract.DeferParents < 0 {
		errs = append(errs, fmt.Errorf("extract.deferParents %d must not be negative", c.Extract.DeferParents))
	}
	if c.Extract.Jobs < 1 {
		errs = append(errs, fmt.Errorf("extract.jobs %d must be at least 1", c.Extract.Jobs))
	}
	return errors.Join(errs...)
}

// Layout returns the corpus layout rooted at Data.Home.
func (c *Config) Layout() corpus.Layout {
	return corpus.Layout{
		Root:         c.Data.Home,
		PostsDir:     c.Data.PostsDir,
		CommentsDir:  c.Data.CommentsDir,
		PostDocument: c.Data.PostDocument,
	}
}

// FilteredUsersPath returns the filtered-author file, resolved against
// Data.Home, or "" when none is configured.
func (c *Config) FilteredUsersPath() string {
	return c.dataPath(c.Data.FilteredUsers)
}

// ExcludeSetPath returns the subreddit exclude set, resolved like
// FilteredUsersPath.
func (c *Config) ExcludeSetPath() string {
	return c.dataPath(c.Data.ExcludeSet)
}

// SubredditListPath returns the valid-subreddit TSV, resolved like
// FilteredUsersPath.
func (c *Config) SubredditListPath() string {
	return c.dataPath(c.Data.SubredditList)
}

func (c *Config) dataPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Data.Home, p)
}

// Options returns the default extraction options.
func (c *Config) Options() network.Options {
	return network.Options{
		CleanDeleted: c.Extract.CleanDeleted,
		CleanBots:    c.Extract.CleanBots,
		IDF:          c.Extract.IDF,
		DeferParents: c.Extract.DeferParents,
	}
}

// Load reads YAML config from path over the defaults. Relative data and
// store paths resolve against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	cfg.Data.Home = resolve(dir, cfg.Data.Home)
	cfg.Store.Path = resolve(dir, cfg.Store.Path)
	if cfg.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = resolve(dir, cfg.Metrics.Textfile)
	}
	cfg.ResolveEnv()
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Discover finds the config file to use, in priority order:
//  1. REDDITNET_CONFIG env var
//  2. explicit flag value
//  3. walk up from the working directory looking for redditnetwork.yaml
//
// It returns "" when none is found; callers then fall back to Default.
func Discover(flagValue string) string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if flagValue != "" {
		return flagValue
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
