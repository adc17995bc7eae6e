package db

import (
	"errors"

	"github.com/williamleif/redditnetwork/internal/network"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("ambiguous run id prefix")
)

// Run represents a row in the runs table
type Run struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`      // window label, e.g. "2014-w13"
	Subreddits []string      `json:"subreddits"` // stored comma-separated
	Base       int64         `json:"base"`       // Unix seconds, origin of node times
	CreatedAt  int64         `json:"created_at"` // Unix millis
	Posts      int           `json:"posts"`
	Stats      network.Stats `json:"stats"`
	ElapsedMs  int64         `json:"elapsed_ms"`
	IDF        bool          `json:"idf"`
	CleanDel   bool          `json:"clean_deleted"`
	CleanBots  bool          `json:"clean_bots"`
}
