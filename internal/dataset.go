package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// RecordSource supplies the ordered record stream and identity set. The
// archive Store implements it; tests substitute an in-memory source.
type RecordSource interface {
	OwnerIdentities(ctx context.Context) ([]string, error)
	ForEachRecord(ctx context.Context, threadID string, fn func(Record) error) error
}

// Orchestrator drives the session builder across selected threads in
// timestamp order, serializes completed sessions as JSON lines, and shards
// the output into size-bounded file parts.
//
// Memory stays bounded by one open session buffer plus one open shard buffer:
// emit blocks until the consumer has taken the part, and nothing emitted is
// retained.
type Orchestrator struct {
	source     RecordSource
	opts       Options
	tok        Tokenizer
	onProgress ProgressFunc
}

// NewOrchestrator creates an orchestrator over a record source.
func NewOrchestrator(source RecordSource, opts Options, tok Tokenizer) *Orchestrator {
	if tok == nil {
		tok = EstimateTokens
	}
	return &Orchestrator{source: source, opts: opts.Normalize(), tok: tok}
}

// SetProgress installs a callback invoked once per fully processed thread.
func (o *Orchestrator) SetProgress(fn ProgressFunc) {
	o.onProgress = fn
}

// Run processes the selected threads and hands each completed shard to emit.
// It fails fast on selection and sink errors and fails at the end when no
// thread produced a single entry; per-record problems only degrade locally.
func (o *Orchestrator) Run(ctx context.Context, threads []Thread, emit func(FilePart) error) error {
	if len(threads) == 0 {
		return &SelectionError{Reason: "no threads selected"}
	}

	identityValues, err := o.source.OwnerIdentities(ctx)
	if err != nil {
		return err
	}
	identities := NewIdentitySet(identityValues)
	if len(identities) == 0 {
		return &SelectionError{Reason: "no owner identities configured"}
	}

	writer := newShardWriter(o.opts.MaxFileBytes, emit)
	totalEntries := 0

	for i, thread := range threads {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := o.processThread(ctx, thread, identities, writer)
		totalEntries += n
		if err != nil {
			return err
		}
		LogDebug("thread %s: %d entr%s", thread.ID, n, plural(n, "y", "ies"))
		if o.onProgress != nil {
			o.onProgress(i+1, len(threads))
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	if totalEntries == 0 {
		return &NoTrainableDataError{ThreadCount: len(threads)}
	}
	return nil
}

// processThread streams one thread's records through its builder. State
// machine: EMPTY → ACCUMULATING → [SPLIT → ACCUMULATING]* → DRAINED; the
// trailing orphan session, if it never closes on an assistant turn, is
// discarded by the final Finalize.
func (o *Orchestrator) processThread(ctx context.Context, thread Thread, identities IdentitySet, writer *shardWriter) (int, error) {
	builder := BuilderForThread(thread, identities, o.opts, o.tok)
	norm := NewNormalizer(o.opts)
	quotes := NewQuoteIndex()
	entries := 0

	err := o.source.ForEachRecord(ctx, thread.ID, func(r Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var content string
		if thread.Platform == PlatformGoogleMail {
			content = norm.NormalizeCorrespondence(r.Content)
		} else {
			content = norm.Normalize(r.Content)
		}
		if content == "" {
			// Media-only or fully boilerplate record; no turn to pack, but an
			// owner reaction on it still counts as a reply.
			builder.AddReaction(r.ReactionsJSON, identities.RoleFor(r.SenderName), r.TimestampMs)
			return nil
		}

		if quote, qerr := ParseQuoteRef(r.ShareJSON); qerr != nil {
			LogDebug("thread %s record %d: malformed quote payload: %v", thread.ID, r.ID, qerr)
		} else if quotes.Resolve(quote) {
			content = fmt.Sprintf("[Replying to %s] %s", quote.Sender, content)
		}
		quotes.Add(r.SenderName, r.Content, r.TimestampMs)

		role := identities.RoleFor(r.SenderName)
		entry := builder.AddMessage(content, role, r.SenderName, r.TimestampMs, r.ReactionsJSON)
		if entry == nil {
			return nil
		}
		entries++
		return writer.Append(entry)
	})
	if err != nil {
		return entries, err
	}

	if entry := builder.Finalize(); entry != nil {
		entries++
		if err := writer.Append(entry); err != nil {
			return entries, err
		}
	}
	return entries, nil
}

// shardWriter accumulates JSON lines and flushes a FilePart strictly before
// the byte budget would be exceeded.
type shardWriter struct {
	maxBytes int
	buf      bytes.Buffer
	index    int
	emit     func(FilePart) error
}

func newShardWriter(maxBytes int, emit func(FilePart) error) *shardWriter {
	return &shardWriter{maxBytes: maxBytes, emit: emit}
}

// Append serializes one entry as a JSON line. A line larger than the whole
// budget still gets a shard of its own; the bound is otherwise strict.
func (w *shardWriter) Append(entry *DatasetEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize entry: %w", err)
	}
	line = append(line, '\n')

	if w.buf.Len() > 0 && w.buf.Len()+len(line) > w.maxBytes {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	w.buf.Write(line)
	return nil
}

// Flush emits the open shard, if any, and starts a new one.
func (w *shardWriter) Flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	w.index++
	part := FilePart{
		FileName: fmt.Sprintf("dataset-%04d.jsonl", w.index),
		Content:  append([]byte(nil), w.buf.Bytes()...),
	}
	w.buf.Reset()
	return w.emit(part)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// RankedThread pairs a thread with its quality score.
type RankedThread struct {
	Thread Thread
	Score  ThreadScore
}

// RankThreads scores candidate threads and orders them best-first. Ties break
// on recency of last activity. Ranking informs selection; it never gates it.
func RankThreads(threads []Thread, now time.Time) []RankedThread {
	ranked := make([]RankedThread, 0, len(threads))
	for _, t := range threads {
		ranked = append(ranked, RankedThread{Thread: t, Score: ScoreThread(t, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.Final != ranked[j].Score.Final {
			return ranked[i].Score.Final > ranked[j].Score.Final
		}
		return ranked[i].Thread.LastActivityMs > ranked[j].Thread.LastActivityMs
	})
	return ranked
}
