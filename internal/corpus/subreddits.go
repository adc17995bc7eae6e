package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Subreddits lists the subreddits with comment partitions in year, sorted.
// The yearly comment directory is read when it exists, otherwise the union
// of the monthly ones. Names in exclude are left out.
func Subreddits(layout Layout, year int, exclude map[string]struct{}) ([]string, error) {
	root := filepath.Join(layout.Root, layout.kindDir(KindComment))
	dirs := []string{filepath.Join(root, strconv.Itoa(year))}
	if _, err := os.Stat(dirs[0]); errors.Is(err, os.ErrNotExist) {
		dirs = dirs[:0]
		for month := 1; month <= 12; month++ {
			dirs = append(dirs, filepath.Join(root, fmt.Sprintf("%d_%02d", year, month)))
		}
	}

	names := make(map[string]struct{})
	found := false
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		found = true
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			// "golang.info", "golang.bin.zst"
			name, _, _ := strings.Cut(e.Name(), ".")
			if name == "" {
				continue
			}
			if _, skip := exclude[name]; skip {
				continue
			}
			names[name] = struct{}{}
		}
	}
	if !found {
		return nil, fmt.Errorf("comments of %d under %s: %w", year, root, ErrNotFound)
	}
	return slices.Sorted(maps.Keys(names)), nil
}

// LoadExcludeSet reads a JSON array of subreddit names to leave out of
// listings.
func LoadExcludeSet(path string) (map[string]struct{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("exclude set %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading exclude set: %w", err)
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// LoadSubredditList reads the first column of a TSV such as the archive's
// per-subreddit comment counts, in file order.
func LoadSubredditList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subreddit list %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("opening subreddit list: %w", err)
	}
	defer f.Close()

	var subs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name, _, _ := strings.Cut(scanner.Text(), "\t")
		if name = strings.TrimSpace(name); name != "" {
			subs = append(subs, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return subs, nil
}
