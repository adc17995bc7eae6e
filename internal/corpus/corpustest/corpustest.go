// Package corpustest writes on-disk partitions for tests.
package corpustest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/williamleif/redditnetwork/internal/corpus"
)

// Doc builds a document from surface forms; every token gets a vector of
// the given width whose components all equal the token's position + 1.
func Doc(width int, words ...string) *corpus.Document {
	doc := &corpus.Document{}
	for i, w := range words {
		tok := corpus.Token{Lower: w}
		if width > 0 {
			tok.Vector = make([]float32, width)
			for j := range tok.Vector {
				tok.Vector[j] = float32(i + 1)
			}
		}
		doc.Tokens = append(doc.Tokens, tok)
	}
	return doc
}

// Post is a convenience constructor for post records.
func Post(id, author string, ts int64) corpus.Record {
	return corpus.Record{Kind: corpus.KindPost, ID: id, Author: author, Timestamp: ts}
}

// Comment is a convenience constructor for comment records.
func Comment(id, author string, ts int64, parent, post string) corpus.Record {
	return corpus.Record{
		Kind: corpus.KindComment, ID: id, Author: author, Timestamp: ts,
		Parent: parent, Post: post,
	}
}

// WritePartition writes records as the partition's metadata and document
// files under layout.Root. Records without a document get an empty one.
func WritePartition(t testing.TB, layout corpus.Layout, part corpus.Partition, records []corpus.Record) {
	t.Helper()
	info, docs := encode(t, part.Kind, records)
	writeFile(t, layout.InfoPath(part), info)
	writeFile(t, layout.DocPath(part), docs)
}

// WriteCompressedPartition is WritePartition with zstd-compressed files.
func WriteCompressedPartition(t testing.TB, layout corpus.Layout, part corpus.Partition, records []corpus.Record) {
	t.Helper()
	info, docs := encode(t, part.Kind, records)
	writeFile(t, layout.InfoPath(part)+".zst", compress(t, info))
	writeFile(t, layout.DocPath(part)+".zst", compress(t, docs))
}

// WriteFile writes raw bytes, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	writeFile(t, path, data)
}

func encode(t testing.TB, kind corpus.Kind, records []corpus.Record) ([]byte, []byte) {
	t.Helper()
	var info, docs bytes.Buffer
	w := corpus.NewDocWriter(&docs)
	for _, r := range records {
		if kind == corpus.KindPost {
			obj := map[string]any{
				"id":        r.ID,
				"timestamp": r.Timestamp,
				"author":    r.Author,
				"score":     r.Score,
			}
			if r.Subreddit != "" {
				obj["subreddit"] = r.Subreddit
			}
			if r.NumComments != nil {
				obj["num_comments"] = *r.NumComments
			}
			b, err := json.Marshal(obj)
			if err != nil {
				t.Fatal(err)
			}
			info.Write(b)
			info.WriteByte('\n')
		} else {
			fmt.Fprintf(&info, "%s\t%d\t%s\t%d\t%s\t%s\n",
				r.ID, r.Timestamp, r.Author, r.Score, r.Parent, r.Post)
		}
		if err := w.Write(r.Doc); err != nil {
			t.Fatal(err)
		}
	}
	return info.Bytes(), docs.Bytes()
}

func compress(t testing.TB, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
