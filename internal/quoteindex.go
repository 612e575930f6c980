package internal

import (
	"encoding/json"
	"strings"
)

// QuoteRef is the optional quoted-message reference carried on a record.
// Association back to the original is a value match on sender + content, not
// an object reference: source records are never mutated or deleted, so an
// incrementally built index is enough.
type QuoteRef struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Link    string `json:"link,omitempty"`
	Text    string `json:"share_text,omitempty"`
}

// ParseQuoteRef decodes a share/quote payload. Malformed payloads yield
// (nil, error); callers treat that as "no quote".
func ParseQuoteRef(shareJSON string) (*QuoteRef, error) {
	if shareJSON == "" {
		return nil, nil
	}
	var q QuoteRef
	if err := json.Unmarshal([]byte(shareJSON), &q); err != nil {
		return nil, err
	}
	if q.Sender == "" && q.Content == "" {
		return nil, nil
	}
	return &q, nil
}

// QuoteIndex maps (sender, content) of every processed turn to its first
// occurrence, so quoted replies can be tied back to the message they quote.
type QuoteIndex struct {
	seen map[quoteKey]int64
}

type quoteKey struct {
	sender  string
	content string
}

// NewQuoteIndex creates an empty index.
func NewQuoteIndex() *QuoteIndex {
	return &QuoteIndex{seen: make(map[quoteKey]int64)}
}

// Add records a processed turn. First occurrence wins.
func (ix *QuoteIndex) Add(sender, content string, timestampMs int64) {
	key := quoteKey{identityKey(sender), strings.TrimSpace(content)}
	if _, ok := ix.seen[key]; !ok {
		ix.seen[key] = timestampMs
	}
}

// Resolve reports whether the quoted message was seen earlier in the thread.
func (ix *QuoteIndex) Resolve(q *QuoteRef) bool {
	if q == nil {
		return false
	}
	_, ok := ix.seen[quoteKey{identityKey(q.Sender), strings.TrimSpace(q.Content)}]
	return ok
}

// Len returns the number of indexed turns.
func (ix *QuoteIndex) Len() int {
	return len(ix.seen)
}
