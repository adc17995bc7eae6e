package corpus

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var botPattern = regexp.MustCompile(`bot\d*$`)

// IsBot reports whether an author name looks like an automated account.
func IsBot(author string) bool {
	return botPattern.MatchString(strings.ToLower(author))
}

// AuthorFilter decides which records survive decoding.
// Blocked is shared read-only across streams.
type AuthorFilter struct {
	CleanDeleted bool
	CleanBots    bool
	Blocked      map[string]struct{}
}

// Keep returns false when the record's author should be dropped.
func (f AuthorFilter) Keep(author string) bool {
	if f.CleanDeleted && author == DeletedAuthor {
		return false
	}
	if f.CleanBots {
		if IsBot(author) {
			return false
		}
		if _, blocked := f.Blocked[author]; blocked {
			return false
		}
	}
	return true
}

// LoadBlockedAuthors reads a filtered-users file: one author per line,
// tab-separated, author in the first column.
func LoadBlockedAuthors(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("filtered users %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("opening filtered users: %w", err)
	}
	defer f.Close()

	blocked := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, _, _ := strings.Cut(line, "\t")
		blocked[name] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading filtered users: %w", err)
	}
	return blocked, nil
}
