package corpus

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Document stream framing: each document is a little-endian uint32 payload
// length followed by the payload. The payload is a uvarint token count and,
// per token, a uvarint-prefixed lowercase form, one flag byte and, when
// flagVector is set, a uvarint dimension followed by that many LE float32s.

const (
	flagLikeNum byte = 1 << iota
	flagLikeURL
	flagIsPunct
	flagVector
)

// maxFrameSize bounds a single document frame so a corrupt length prefix
// fails fast instead of allocating gigabytes.
const maxFrameSize = 64 << 20

var errCorruptFrame = errors.New("corrupt document frame")

// DocReader decodes documents one frame at a time.
type DocReader struct {
	r   *bufio.Reader
	buf []byte
}

func NewDocReader(r io.Reader) *DocReader {
	return &DocReader{r: bufio.NewReaderSize(r, 1<<16)}
}

// frameLen reads the next length prefix. io.EOF means a clean end of stream.
func (d *DocReader) frameLen() (int, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return 0, fmt.Errorf("%w: truncated length prefix", errCorruptFrame)
		}
		return 0, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > maxFrameSize {
		return 0, fmt.Errorf("%w: frame of %d bytes", errCorruptFrame, n)
	}
	return int(n), nil
}

// Next decodes the next document. It returns io.EOF after the last one.
func (d *DocReader) Next() (*Document, error) {
	n, err := d.frameLen()
	if err != nil {
		return nil, err
	}
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	payload := d.buf[:n]
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated payload", errCorruptFrame)
	}
	return decodeDocument(payload)
}

// Skip discards the next document without decoding it.
func (d *DocReader) Skip() error {
	n, err := d.frameLen()
	if err != nil {
		return err
	}
	if _, err := d.r.Discard(n); err != nil {
		return fmt.Errorf("%w: truncated payload", errCorruptFrame)
	}
	return nil
}

func decodeDocument(p []byte) (*Document, error) {
	count, k := binary.Uvarint(p)
	if k <= 0 {
		return nil, fmt.Errorf("%w: token count", errCorruptFrame)
	}
	p = p[k:]
	// Each token takes at least two bytes.
	if count > uint64(len(p)/2+1) {
		return nil, fmt.Errorf("%w: %d tokens in %d bytes", errCorruptFrame, count, len(p))
	}

	doc := &Document{Tokens: make([]Token, 0, count)}
	for i := uint64(0); i < count; i++ {
		strLen, k := binary.Uvarint(p)
		if k <= 0 || strLen >= uint64(len(p)-k) {
			return nil, fmt.Errorf("%w: token %d", errCorruptFrame, i)
		}
		p = p[k:]
		tok := Token{Lower: string(p[:strLen])}
		flags := p[strLen]
		p = p[strLen+1:]
		tok.LikeNum = flags&flagLikeNum != 0
		tok.LikeURL = flags&flagLikeURL != 0
		tok.IsPunct = flags&flagIsPunct != 0

		if flags&flagVector != 0 {
			dim, k := binary.Uvarint(p)
			if k <= 0 || dim > uint64(len(p)-k)/4 {
				return nil, fmt.Errorf("%w: vector of token %d", errCorruptFrame, i)
			}
			p = p[k:]
			tok.Vector = make([]float32, dim)
			for j := range tok.Vector {
				tok.Vector[j] = math.Float32frombits(binary.LittleEndian.Uint32(p[j*4:]))
			}
			p = p[dim*4:]
		}
		doc.Tokens = append(doc.Tokens, tok)
	}
	if len(p) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", errCorruptFrame, len(p))
	}
	return doc, nil
}

// DocWriter encodes documents in the framing DocReader expects.
type DocWriter struct {
	w   io.Writer
	buf []byte
}

func NewDocWriter(w io.Writer) *DocWriter {
	return &DocWriter{w: w}
}

// Write appends one document; a nil document is written as empty.
func (d *DocWriter) Write(doc *Document) error {
	p := d.buf[:0]
	p = append(p, 0, 0, 0, 0) // length placeholder
	p = binary.AppendUvarint(p, uint64(doc.Len()))
	if doc != nil {
		for _, tok := range doc.Tokens {
			p = binary.AppendUvarint(p, uint64(len(tok.Lower)))
			p = append(p, tok.Lower...)
			var flags byte
			if tok.LikeNum {
				flags |= flagLikeNum
			}
			if tok.LikeURL {
				flags |= flagLikeURL
			}
			if tok.IsPunct {
				flags |= flagIsPunct
			}
			if tok.HasVector() {
				flags |= flagVector
			}
			p = append(p, flags)
			if tok.HasVector() {
				p = binary.AppendUvarint(p, uint64(len(tok.Vector)))
				for _, v := range tok.Vector {
					p = binary.LittleEndian.AppendUint32(p, math.Float32bits(v))
				}
			}
		}
	}
	binary.LittleEndian.PutUint32(p[:4], uint32(len(p)-4))
	d.buf = p
	_, err := d.w.Write(p)
	return err
}
