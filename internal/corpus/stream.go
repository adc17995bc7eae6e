package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"
)

// Stream is a lazy, finite, single-pass sequence of records. Iteration stops
// at the first error, which is yielded with a zero Record.
type Stream interface {
	Records() iter.Seq2[Record, error]
}

// maxLineSize bounds one metadata line; post JSON with long titles can
// exceed bufio's 64KiB default.
const maxLineSize = 4 << 20

var errShortDocStream = errors.New("document stream ended before metadata")

// PartitionStream reads one partition file pair. Files are opened when
// iteration starts and closed when it finishes, fails, or is abandoned.
type PartitionStream struct {
	layout   Layout
	part     Partition
	filter   AuthorFilter
	start    time.Time
	end      time.Time
	noDocs   bool
	consumed bool
}

// Option configures a PartitionStream.
type Option func(*PartitionStream)

// WithFilter applies author filtering inline.
func WithFilter(f AuthorFilter) Option {
	return func(s *PartitionStream) { s.filter = f }
}

// WithSpan keeps only records with start <= timestamp < end.
func WithSpan(start, end time.Time) Option {
	return func(s *PartitionStream) { s.start, s.end = start, end }
}

// WithWeek keeps only records inside the 7 days starting at weekStart.
func WithWeek(weekStart time.Time) Option {
	return WithSpan(weekStart, weekStart.AddDate(0, 0, 7))
}

// WithoutDocuments skips document decoding; Record.Doc stays nil.
func WithoutDocuments() Option {
	return func(s *PartitionStream) { s.noDocs = true }
}

// Open prepares a stream over one partition. No file is touched until the
// stream is iterated.
func Open(layout Layout, part Partition, opts ...Option) *PartitionStream {
	s := &PartitionStream{layout: layout, part: part}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partition returns the partition this stream reads.
func (s *PartitionStream) Partition() Partition { return s.part }

func (s *PartitionStream) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if s.consumed {
			yield(Record{}, fmt.Errorf("%s: %w", s.part, ErrConsumed))
			return
		}
		s.consumed = true
		if err := s.iterate(yield); err != nil {
			yield(Record{}, err)
		}
	}
}

func (s *PartitionStream) keep(r Record) bool {
	if !s.start.IsZero() {
		if r.Timestamp < s.start.Unix() || r.Timestamp >= s.end.Unix() {
			return false
		}
	}
	return s.filter.Keep(r.Author)
}

// iterate returns nil when the consumer stops early.
func (s *PartitionStream) iterate(yield func(Record, error) bool) error {
	infoPath := s.layout.InfoPath(s.part)
	info, err := openPartitionFile(infoPath)
	if err != nil {
		return err
	}
	defer info.Close()

	var docs *DocReader
	docPath := s.layout.DocPath(s.part)
	if !s.noDocs {
		f, err := openPartitionFile(docPath)
		if err != nil {
			return err
		}
		defer f.Close()
		docs = NewDocReader(f)
	}

	parse := parseCommentLine
	if s.part.Kind == KindPost {
		parse = parsePostLine
	}

	scanner := bufio.NewScanner(info)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		rec, err := parse(scanner.Text())
		if err != nil {
			return &ParseError{Path: infoPath, Line: line, Err: err}
		}
		if rec.Subreddit == "" {
			rec.Subreddit = s.part.Subreddit
		}

		keep := s.keep(rec)
		if docs != nil {
			if keep {
				rec.Doc, err = docs.Next()
			} else {
				err = docs.Skip()
			}
			if err == io.EOF {
				err = errShortDocStream
			}
			if err != nil {
				return &ParseError{Path: docPath, Line: line, Err: err}
			}
		}
		if !keep {
			continue
		}
		if !yield(rec, nil) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return &ParseError{Path: infoPath, Line: line + 1, Err: err}
	}
	if docs != nil {
		if err := docs.Skip(); err != io.EOF {
			if err == nil {
				err = errors.New("document stream longer than metadata")
			}
			return &ParseError{Path: docPath, Line: line + 1, Err: err}
		}
	}
	return nil
}

// CountRecords counts metadata lines of a partition without decoding them.
func CountRecords(layout Layout, part Partition) (int, error) {
	path := layout.InfoPath(part)
	f, err := openPartitionFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	partial := false
	r := bufio.NewReaderSize(f, 1<<16)
	for {
		chunk, err := r.ReadSlice('\n')
		if len(chunk) > 0 {
			partial = chunk[len(chunk)-1] != '\n'
			if !partial {
				n++
			}
		}
		if err == io.EOF {
			if partial {
				n++ // final line without newline
			}
			return n, nil
		}
		if err != nil && err != bufio.ErrBufferFull {
			return 0, fmt.Errorf("counting %s: %w", path, err)
		}
	}
}

// SliceStream is an in-memory Stream. Unlike partition streams it may be
// iterated more than once.
type SliceStream []Record

func (s SliceStream) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range s {
			if !yield(r, nil) {
				return
			}
		}
	}
}
