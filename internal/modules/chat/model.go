// README: Knowledge-base entries and recorded chat answers.
package chat

import (
	"time"

	"aieats/internal/types"
)

// Source identifies where an answer came from.
type Source string

const (
	SourceKB       Source = "kb"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Entry is one curated knowledge-base item. Keywords are matched
// case-insensitively against incoming questions, in addition to a substring
// match on the stored question itself.
type Entry struct {
	ID       types.ID
	Question string
	Answer   string
	Keywords []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Answer is one delivered reply, kept so users can rate and flag it and
// managers can fold corrections back into the knowledge base. Rating 0
// means unrated.
type Answer struct {
	ID       types.ID
	UserID   types.ID
	Question string
	Text     string
	Source   Source

	Rating     int
	Flagged    bool
	FlagReason string

	CreatedAt time.Time
}
