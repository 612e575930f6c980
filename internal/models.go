package internal

import (
	"encoding/json"
	"strings"
	"time"
)

// Platform identifies which export a thread was ingested from.
type Platform string

const (
	PlatformFacebook    Platform = "facebook"
	PlatformInstagram   Platform = "instagram"
	PlatformGoogleChat  Platform = "google_chat"
	PlatformGoogleVoice Platform = "google_voice"
	PlatformGoogleMail  Platform = "google_mail"
	PlatformPosts       Platform = "posts"
)

// SelfAuthored reports whether a platform carries one-way content the owner
// wrote with no specific addressee (status updates, notes to self).
func (p Platform) SelfAuthored() bool {
	return p == PlatformPosts
}

// Record is one communication event as stored by the ingester. Records are
// read-only inputs; the synthesis pipeline never mutates them.
type Record struct {
	ID            int64
	ThreadID      string
	SenderName    string
	TimestampMs   int64
	Content       string
	MediaJSON     string // JSON array: [{"uri": "...", "type": "image"}]
	ReactionsJSON string // JSON array: [{"reaction": "❤️", "actor": "Name"}]
	ShareJSON     string // JSON object: {"link": "...", "share_text": "..."}
}

// Time returns the record timestamp as a time.Time.
func (r *Record) Time() time.Time {
	return time.Unix(0, r.TimestampMs*int64(time.Millisecond))
}

// Reaction is a single emoji reaction on a record.
type Reaction struct {
	Reaction string `json:"reaction"`
	Actor    string `json:"actor"`
}

// ParseReactions decodes a reactions payload. A malformed payload yields
// (nil, error); callers treat that as "no reactions".
func ParseReactions(reactionsJSON string) ([]Reaction, error) {
	if reactionsJSON == "" {
		return nil, nil
	}
	var reacts []Reaction
	if err := json.Unmarshal([]byte(reactionsJSON), &reacts); err != nil {
		return nil, err
	}
	return reacts, nil
}

// Thread is a conversation's metadata plus the aggregate statistics the
// quality scorer consumes.
type Thread struct {
	ID             string
	Platform       Platform
	Title          string
	Participants   []string
	IsGroup        bool
	LastActivityMs int64

	MessageCount      int
	OwnerMessageCount int
	AvgOwnerMsgLength float64
}

// Role tags a message as owner-authored or counterpart-authored.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is the unit buffered inside an in-progress session.
type Turn struct {
	Role    Role
	Content string
	Sender  string

	tokens int   // cost charged against the session budget when this turn was added
	ts     int64 // millisecond timestamp of the originating record
}

// ChatMessage is one role-tagged message in a finished training example.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DatasetEntry is a finalized, immutable training example. The last
// content-bearing message always has role assistant.
type DatasetEntry struct {
	Messages []ChatMessage `json:"messages"`
}

// FilePart is one shard of newline-delimited serialized entries. Parts are
// emitted in order and not retained after the sink consumes them.
type FilePart struct {
	FileName string
	Content  []byte
}

// IdentitySet holds the names/emails the owner has claimed as themselves.
// Matching ignores case and surrounding whitespace, since the ingester stores
// sender names exactly as the exports spell them.
type IdentitySet map[string]struct{}

// NewIdentitySet builds an IdentitySet from raw identity values.
func NewIdentitySet(values []string) IdentitySet {
	set := make(IdentitySet, len(values))
	for _, v := range values {
		if key := identityKey(v); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// Contains reports whether name belongs to the owner.
func (s IdentitySet) Contains(name string) bool {
	_, ok := s[identityKey(name)]
	return ok
}

// RoleFor classifies a sender: assistant if the sender is the owner, else user.
func (s IdentitySet) RoleFor(sender string) Role {
	if s.Contains(sender) {
		return RoleAssistant
	}
	return RoleUser
}

func identityKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
