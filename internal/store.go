package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store reads a MessageHub archive database. It is the pipeline's record
// source; the database is opened read-only and never mutated.
type Store struct {
	db *sql.DB
}

// OpenStore opens an archive database in read-only mode.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: err}
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// OwnerIdentities returns every identity value the owner has claimed as
// themselves, across all platforms.
func (s *Store) OwnerIdentities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id_value FROM identities WHERE is_me = 1")
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &StoreError{Op: "scan", Err: err}
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	return values, nil
}

// Threads returns all threads with the aggregate statistics the quality
// scorer consumes. Owner attribution uses the given identity values.
func (s *Store) Threads(ctx context.Context, identities []string) ([]Thread, error) {
	return s.queryThreads(ctx, identities, "")
}

// Thread returns a single thread by ID.
func (s *Store) Thread(ctx context.Context, identities []string, threadID string) (Thread, error) {
	threads, err := s.queryThreads(ctx, identities, threadID)
	if err != nil {
		return Thread{}, err
	}
	if len(threads) == 0 {
		return Thread{}, &StoreError{Op: "query", Err: fmt.Errorf("thread %s not found", threadID)}
	}
	return threads[0], nil
}

func (s *Store) queryThreads(ctx context.Context, identities []string, threadID string) ([]Thread, error) {
	ownerExpr, args := ownerMatchExpr(identities)
	// ownerExpr is interpolated twice below, so its placeholders need their
	// arguments bound twice.
	args = append(args, args...)

	query := fmt.Sprintf(`
		SELECT t.id, t.platform, COALESCE(t.title, ''), COALESCE(t.participants_json, '[]'),
		       COALESCE(t.is_group, 0), COALESCE(t.last_activity_ms, 0),
		       COUNT(m.id),
		       COALESCE(SUM(CASE WHEN %[1]s THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(CASE WHEN %[1]s THEN LENGTH(m.content) END), 0)
		FROM threads t
		LEFT JOIN messages m ON m.thread_id = t.id`, ownerExpr)
	if threadID != "" {
		query += " WHERE t.id = ?"
		args = append(args, threadID)
	}
	query += " GROUP BY t.id ORDER BY t.last_activity_ms DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var (
			t            Thread
			platform     string
			participants string
		)
		if err := rows.Scan(&t.ID, &platform, &t.Title, &participants,
			&t.IsGroup, &t.LastActivityMs,
			&t.MessageCount, &t.OwnerMessageCount, &t.AvgOwnerMsgLength); err != nil {
			return nil, &StoreError{Op: "scan", Err: err}
		}
		t.Platform = Platform(platform)
		t.Participants = decodeParticipants(participants)
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	return threads, nil
}

// ForEachRecord streams a thread's records in ascending timestamp order. The
// callback's error stops iteration and is returned as-is, so the orchestrator
// can propagate sink failures unchanged.
func (s *Store) ForEachRecord(ctx context.Context, threadID string, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, COALESCE(sender_name, ''), COALESCE(timestamp_ms, 0),
		       COALESCE(content, ''), COALESCE(media_json, ''),
		       COALESCE(reactions_json, ''), COALESCE(share_json, '')
		FROM messages
		WHERE thread_id = ?
		ORDER BY timestamp_ms ASC, id ASC`, threadID)
	if err != nil {
		return &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.ThreadID, &r.SenderName, &r.TimestampMs,
			&r.Content, &r.MediaJSON, &r.ReactionsJSON, &r.ShareJSON); err != nil {
			return &StoreError{Op: "scan", Err: err}
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &StoreError{Op: "query", Err: err}
	}
	return nil
}

// ownerMatchExpr builds a SQL predicate matching sender_name against the
// identity values, case-insensitively.
func ownerMatchExpr(identities []string) (string, []interface{}) {
	if len(identities) == 0 {
		return "0", nil
	}
	placeholders := make([]string, len(identities))
	args := make([]interface{}, len(identities))
	for i, v := range identities {
		placeholders[i] = "?"
		args[i] = identityKey(v)
	}
	return "LOWER(TRIM(m.sender_name)) IN (" + strings.Join(placeholders, ", ") + ")", args
}

func decodeParticipants(participantsJSON string) []string {
	var names []string
	if participantsJSON == "" {
		return nil
	}
	// Best effort; a malformed participants list only affects display.
	if err := json.Unmarshal([]byte(participantsJSON), &names); err != nil {
		LogDebug("skipping malformed participants payload: %v", err)
		return nil
	}
	return names
}
