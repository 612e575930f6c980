package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS threads (
	id TEXT PRIMARY KEY,
	platform TEXT,
	title TEXT,
	participants_json TEXT,
	is_group BOOLEAN,
	last_activity_ms INTEGER,
	snippet TEXT
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id TEXT,
	sender_name TEXT,
	timestamp_ms INTEGER,
	content TEXT,
	media_json TEXT,
	reactions_json TEXT,
	share_json TEXT,
	annotations_json TEXT,
	UNIQUE(thread_id, sender_name, timestamp_ms, content)
);

CREATE TABLE IF NOT EXISTS identities (
	platform TEXT,
	id_type TEXT,
	id_value TEXT,
	is_me BOOLEAN DEFAULT 0,
	metadata_json TEXT,
	PRIMARY KEY (platform, id_type, id_value)
);
`

// CreateArchiveFixture creates a MessageHub archive database at dbPath with
// the production schema and no rows.
func CreateArchiveFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(archiveSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
}

// ArchiveWriter inserts fixture rows into an archive database.
type ArchiveWriter struct {
	t  *testing.T
	db *sql.DB
}

// OpenArchiveWriter opens (creating if needed) a fixture archive for writes.
func OpenArchiveWriter(t *testing.T, dbPath string) *ArchiveWriter {
	t.Helper()
	CreateArchiveFixture(t, dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &ArchiveWriter{t: t, db: db}
}

// AddThread inserts a thread row.
func (w *ArchiveWriter) AddThread(id, platform, title string, isGroup bool, lastActivityMs int64) {
	w.t.Helper()
	_, err := w.db.Exec(
		"INSERT INTO threads (id, platform, title, participants_json, is_group, last_activity_ms) VALUES (?, ?, ?, '[]', ?, ?)",
		id, platform, title, isGroup, lastActivityMs)
	if err != nil {
		w.t.Fatalf("Failed to insert thread %s: %v", id, err)
	}
}

// AddMessage inserts a message row with empty payloads.
func (w *ArchiveWriter) AddMessage(threadID, sender string, timestampMs int64, content string) {
	w.t.Helper()
	w.AddMessageFull(threadID, sender, timestampMs, content, "", "")
}

// AddMessageFull inserts a message row with reaction and share payloads.
func (w *ArchiveWriter) AddMessageFull(threadID, sender string, timestampMs int64, content, reactionsJSON, shareJSON string) {
	w.t.Helper()
	_, err := w.db.Exec(
		"INSERT INTO messages (thread_id, sender_name, timestamp_ms, content, reactions_json, share_json) VALUES (?, ?, ?, ?, ?, ?)",
		threadID, sender, timestampMs, content, nullable(reactionsJSON), nullable(shareJSON))
	if err != nil {
		w.t.Fatalf("Failed to insert message in %s: %v", threadID, err)
	}
}

// AddIdentity inserts an identity row.
func (w *ArchiveWriter) AddIdentity(platform, idType, idValue string, isMe bool) {
	w.t.Helper()
	_, err := w.db.Exec(
		"INSERT INTO identities (platform, id_type, id_value, is_me) VALUES (?, ?, ?, ?)",
		platform, idType, idValue, isMe)
	if err != nil {
		w.t.Fatalf("Failed to insert identity %s: %v", idValue, err)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "voiceforge-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}
