package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const (
	DefaultPostsDir    = "spacy_posts"
	DefaultCommentsDir = "spacy_comments"

	// PostDocumentTitle reads post documents from the title stream,
	// PostDocumentText from the full-text stream.
	PostDocumentTitle = "title"
	PostDocumentText  = "text"

	zstdSuffix = ".zst"
)

// Partition names one storage unit: one subreddit for one calendar month.
// Month 0 selects the yearly partition.
type Partition struct {
	Kind      Kind
	Subreddit string
	Year      int
	Month     int
}

func (p Partition) String() string {
	if p.Month == 0 {
		return fmt.Sprintf("%s %s/%d", p.Kind, p.Subreddit, p.Year)
	}
	return fmt.Sprintf("%s %s/%d-%02d", p.Kind, p.Subreddit, p.Year, p.Month)
}

// Layout maps partitions to files under a data root.
type Layout struct {
	Root         string
	PostsDir     string
	CommentsDir  string
	PostDocument string
}

// Base returns the path prefix shared by a partition's files.
func (l Layout) Base(p Partition) string {
	dir := l.kindDir(p.Kind)
	period := fmt.Sprintf("%d_%02d", p.Year, p.Month)
	if p.Month == 0 {
		period = fmt.Sprintf("%d", p.Year)
	}
	return filepath.Join(l.Root, dir, period, p.Subreddit)
}

// kindDir returns the directory under Root holding partitions of kind.
func (l Layout) kindDir(kind Kind) string {
	if kind == KindPost {
		if l.PostsDir == "" {
			return DefaultPostsDir
		}
		return l.PostsDir
	}
	if l.CommentsDir == "" {
		return DefaultCommentsDir
	}
	return l.CommentsDir
}

// InfoPath returns the metadata file of a partition.
func (l Layout) InfoPath(p Partition) string {
	return l.Base(p) + ".info"
}

// DocPath returns the document stream of a partition.
func (l Layout) DocPath(p Partition) string {
	if p.Kind == KindPost && l.PostDocument != PostDocumentText {
		return l.Base(p) + ".title.bin"
	}
	return l.Base(p) + ".bin"
}

// openPartitionFile opens path, falling back to a zstd-compressed sibling.
func openPartitionFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	zf, zerr := os.Open(path + zstdSuffix)
	if zerr != nil {
		if errors.Is(zerr, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", path+zstdSuffix, zerr)
	}
	dec, err := zstd.NewReader(zf)
	if err != nil {
		zf.Close()
		return nil, fmt.Errorf("opening zstd stream %s: %w", path+zstdSuffix, err)
	}
	return &zstdFile{Decoder: dec, file: zf}, nil
}

type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}
