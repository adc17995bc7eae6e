package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a partition file does not exist.
	ErrNotFound = errors.New("partition file not found")
	// ErrParse marks metadata or document-stream decoding failures.
	ErrParse = errors.New("malformed partition data")
	// ErrConsumed is returned when a single-pass stream is iterated twice.
	ErrConsumed = errors.New("stream already consumed")
)

// ParseError locates a decoding failure within a partition file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

const commentFields = 6

// parseCommentLine decodes "id\ttimestamp\tauthor\tscore\tparent\tpost".
func parseCommentLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "\t")
	if len(fields) != commentFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", commentFields, len(fields))
	}
	ts, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("timestamp %q: %w", fields[1], err)
	}
	score, err := strconv.Atoi(fields[3])
	if err != nil {
		return Record{}, fmt.Errorf("score %q: %w", fields[3], err)
	}
	return Record{
		Kind:      KindComment,
		ID:        fields[0],
		Timestamp: ts,
		Author:    fields[2],
		Score:     score,
		Parent:    fields[4],
		Post:      strings.TrimSpace(fields[5]),
	}, nil
}

// flexInt accepts both JSON numbers and numeric strings; older post dumps
// store timestamps as strings.
type flexInt struct {
	value int64
	set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	// Some dumps write integral values as floats ("1.4e9", "1000.0").
	if v, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		f.value, f.set = v, true
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	f.value, f.set = int64(v), true
	return nil
}

type postInfo struct {
	ID          string  `json:"id"`
	Timestamp   flexInt `json:"timestamp"`
	Author      string  `json:"author"`
	Score       flexInt `json:"score"`
	Subreddit   string  `json:"subreddit"`
	NumComments flexInt `json:"num_comments"`
}

// parsePostLine decodes one JSON post metadata line.
func parsePostLine(line string) (Record, error) {
	var info postInfo
	if err := json.Unmarshal([]byte(line), &info); err != nil {
		return Record{}, fmt.Errorf("decoding post: %w", err)
	}
	if info.ID == "" {
		return Record{}, errors.New("post without id")
	}
	if !info.Timestamp.set {
		return Record{}, fmt.Errorf("post %s without timestamp", info.ID)
	}
	rec := Record{
		Kind:      KindPost,
		ID:        info.ID,
		Timestamp: info.Timestamp.value,
		Author:    info.Author,
		Score:     int(info.Score.value),
		Subreddit: info.Subreddit,
	}
	if info.NumComments.set {
		n := int(info.NumComments.value)
		rec.NumComments = &n
	}
	return rec, nil
}
