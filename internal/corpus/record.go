package corpus

// Kind distinguishes post records from comment records
type Kind int

const (
	KindPost Kind = iota
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindPost:
		return "post"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// DeletedAuthor is the author value the archive uses for removed accounts.
const DeletedAuthor = "[deleted]"

// Record is one post or comment descriptor decoded from a partition.
type Record struct {
	Kind      Kind
	ID        string
	Author    string
	Timestamp int64 // seconds since epoch, UTC
	Score     int
	Subreddit string

	// Comment only. Parent equals Post for top-level replies.
	Parent string
	Post   string

	// Post only. Nil when the metadata schema predates the field.
	NumComments *int

	// Nil when the stream was opened without documents.
	Doc *Document
}

// IsTopLevel reports whether a comment replies directly to its post.
func (r Record) IsTopLevel() bool {
	return r.Parent == r.Post
}

// Token is one token of a pre-processed document.
type Token struct {
	Lower   string
	Vector  []float32 // nil when the engine had no vector for the token
	LikeNum bool
	LikeURL bool
	IsPunct bool
}

// HasVector reports whether the token carries an embedding.
func (t Token) HasVector() bool {
	return len(t.Vector) > 0
}

// Document is the token sequence attached to a record.
type Document struct {
	Tokens []Token
}

// Len returns the token count; a nil document has length 0.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Tokens)
}
